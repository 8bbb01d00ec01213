package link

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/featherforge/arcos.go/pkg/frag"
	"github.com/featherforge/arcos.go/pkg/wire"
)

// Client defaults. Ack timing matches the display firmware.
const (
	DefaultAckTimeout  = 2 * time.Millisecond
	DefaultMaxRetries  = 3
	DefaultPingTimeout = 500 * time.Millisecond
	DefaultCallTimeout = time.Second
)

// Client drives the CPU side of a link: frames out, pings, queries and
// harness commands. It takes over the session's packet handling.
type Client struct {
	// Streaming sends fragments back-to-back without per-fragment ACKs.
	Streaming bool
	// AckTimeout bounds the wait for one fragment ACK in acked mode.
	AckTimeout time.Duration
	// MaxRetries caps delivery attempts per fragment in acked mode.
	MaxRetries int

	session *Session
	frag    frag.Fragmenter
	eventCh chan *wire.Packet

	sendLock sync.Mutex // one frame or call in flight at a time
	callLock sync.Mutex

	mu       sync.Mutex
	pingSeq  uint16
	frameNum uint16
	pongs    []*pongWait
	ack      *ackWait
	call     *callWait
	statsW   *statsWait
}

type pongWait struct {
	seq     uint16
	ts      uint32
	started time.Time
	ch      chan time.Duration
}

type ackWait struct {
	frameNum  uint16
	fragIndex uint8
	ch        chan error
}

type callWait struct {
	cmd byte
	ch  chan *wire.Packet
}

type statsWait struct {
	ch chan *wire.StatsPayload
}

// NewClient creates a Client and wraps the session.
func NewClient(session *Session) *Client {
	c := &Client{
		AckTimeout: DefaultAckTimeout,
		MaxRetries: DefaultMaxRetries,
		session:    session,
		frag:       frag.Fragmenter{Size: session.FragmentSize()},
		eventCh:    make(chan *wire.Packet, 16),
	}
	session.Handler = c
	return c
}

// Session returns the wrapped session.
func (c *Client) Session() *Session {
	return c.session
}

// EventChan delivers packets no pending request claimed, status
// reports and display-side requests among them.
func (c *Client) EventChan() <-chan *wire.Packet {
	return c.eventCh
}

// Run wraps the session loop to implement Runnable.
func (c *Client) Run(ctx context.Context) error {
	return c.session.Run(ctx)
}

// Ping measures the round trip to the far end. Only the PONG echoing
// exactly this ping's timestamp and sequence ends the wait, stale
// answers are ignored until the timeout.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if c.session.Format() != wire.FormatExtended {
		return 0, ErrFormat
	}
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	c.mu.Lock()
	c.pingSeq++
	seq := c.pingSeq
	c.mu.Unlock()

	started := time.Now()
	pl := wire.PingPayload{TimestampUS: uint32(started.UnixMicro()), Seq: seq}
	w := &pongWait{seq: seq, ts: pl.TimestampUS, started: started, ch: make(chan time.Duration, 1)}
	c.mu.Lock()
	c.pongs = append(c.pongs, w)
	c.mu.Unlock()
	defer c.dropPong(w)

	pkt := wire.NewExtended(wire.MsgPing, pl.Marshal())
	pkt.FrameNum = seq
	if err := c.session.Send(pkt); err != nil {
		return 0, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case rtt := <-w.ch:
		c.session.Stats().setRTT(uint32(rtt.Microseconds()))
		return rtt, nil
	case <-timer.C:
		return 0, ErrPingTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// SendFrame fragments and delivers one full frame, returning its frame
// number. In streaming mode fragments go out back-to-back. Otherwise
// every fragment must be acknowledged before the next goes, failed
// ones are retried up to MaxRetries attempts.
func (c *Client) SendFrame(ctx context.Context, target wire.Target, data []byte) (uint16, error) {
	if c.session.Format() != wire.FormatExtended {
		return 0, ErrFormat
	}
	c.mu.Lock()
	c.frameNum++
	num := c.frameNum
	c.mu.Unlock()
	pkts, err := c.frag.Split(target, data, num)
	if err != nil {
		return 0, err
	}

	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	for _, pkt := range pkts {
		if c.Streaming {
			err = c.session.Send(pkt)
		} else {
			err = c.sendAcked(ctx, pkt)
		}
		if err != nil {
			return 0, err
		}
	}
	c.session.Stats().countTxFrame()
	glog.V(3).Infof("link: frame %d to %v sent, %d fragments", num, target, len(pkts))
	return num, nil
}

func (c *Client) sendAcked(ctx context.Context, pkt *wire.Packet) error {
	attempts := c.MaxRetries
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}
	ackTimeout := c.AckTimeout
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	stats := c.session.Stats()
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			stats.countRetry()
			glog.V(2).Infof("link: resending fragment %d of frame %d, attempt %d",
				pkt.FragIndex, pkt.FrameNum, attempt+1)
		}
		w := &ackWait{frameNum: pkt.FrameNum, fragIndex: pkt.FragIndex, ch: make(chan error, 1)}
		c.mu.Lock()
		c.ack = w
		c.mu.Unlock()
		err := c.session.Send(pkt)
		if err != nil {
			c.clearAck(w)
			return err
		}
		timer := time.NewTimer(ackTimeout)
		select {
		case err = <-w.ch:
		case <-timer.C:
			err = ErrAckTimeout
		case <-ctx.Done():
			timer.Stop()
			c.clearAck(w)
			return ctx.Err()
		}
		timer.Stop()
		c.clearAck(w)
		if err == nil {
			if attempt > 0 {
				stats.countRetrySuccess()
			}
			return nil
		}
		if err == ErrAckTimeout {
			stats.countTimeout()
		}
		glog.V(2).Infof("link: fragment %d of frame %d not delivered: %v",
			pkt.FragIndex, pkt.FrameNum, err)
	}
	return ErrRetriesExhausted
}

// clearAck retires the wait unless an answer already claimed it.
func (c *Client) clearAck(w *ackWait) {
	c.mu.Lock()
	if c.ack == w {
		c.ack = nil
	}
	c.mu.Unlock()
}

// QueryStats asks the far end for its link counters.
func (c *Client) QueryStats(ctx context.Context, timeout time.Duration) (*wire.StatsPayload, error) {
	if c.session.Format() != wire.FormatExtended {
		return nil, ErrFormat
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	w := &statsWait{ch: make(chan *wire.StatsPayload, 1)}
	c.mu.Lock()
	if c.statsW != nil {
		c.mu.Unlock()
		return nil, ErrPending
	}
	c.statsW = w
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.statsW == w {
			c.statsW = nil
		}
		c.mu.Unlock()
	}()

	if err := c.session.Send(wire.NewExtended(wire.MsgStatsRequest, nil)); err != nil {
		return nil, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case pl := <-w.ch:
		return pl, nil
	case <-timer.C:
		return nil, ErrCallTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Call sends a harness command and waits for its response, returning
// the data after the status byte. A non-OK status comes back as a
// StatusError. Calls are serialized, the harness answers one at a time.
func (c *Client) Call(ctx context.Context, cmd byte, payload []byte, timeout time.Duration) ([]byte, error) {
	if c.session.Format() != wire.FormatShort {
		return nil, ErrFormat
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	c.callLock.Lock()
	defer c.callLock.Unlock()

	w := &callWait{cmd: cmd, ch: make(chan *wire.Packet, 1)}
	c.mu.Lock()
	c.call = w
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.call == w {
			c.call = nil
		}
		c.mu.Unlock()
	}()

	if err := c.session.Send(wire.NewShort(cmd, payload)); err != nil {
		return nil, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case rsp := <-w.ch:
		if len(rsp.Payload) == 0 {
			return nil, &StatusError{Cmd: cmd, Status: wire.RspError}
		}
		if rsp.Payload[0] != wire.RspOK {
			return nil, &StatusError{Cmd: cmd, Status: rsp.Payload[0]}
		}
		return rsp.Payload[1:], nil
	case <-timer.C:
		return nil, ErrCallTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SetFPS asks the display end to pace a target at the given rate.
func (c *Client) SetFPS(target wire.Target, fps uint8) error {
	return c.session.Send(wire.NewExtended(wire.MsgSetFPS, []byte{byte(target), fps}))
}

// SetBrightness asks the display end to dim or brighten a target.
func (c *Client) SetBrightness(target wire.Target, level uint8) error {
	return c.session.Send(wire.NewExtended(wire.MsgSetBrightness, []byte{byte(target), level}))
}

// RequestFrame asks the far end to push the target's frame again.
func (c *Client) RequestFrame(target wire.Target) error {
	return c.session.Send(wire.NewExtended(wire.MsgFrameRequest, []byte{byte(target)}))
}

// HandlePacket implements PacketHandler.
func (c *Client) HandlePacket(ctx context.Context, pkt *wire.Packet) {
	if pkt.Format == wire.FormatShort {
		c.handleResponse(ctx, pkt)
		return
	}
	switch pkt.Type {
	case wire.MsgPong:
		c.handlePong(pkt)
	case wire.MsgAck, wire.MsgNack:
		c.handleAck(pkt)
	case wire.MsgStatsResponse:
		c.handleStats(ctx, pkt)
	default:
		c.event(ctx, pkt)
	}
}

func (c *Client) handlePong(pkt *wire.Packet) {
	var pl wire.PingPayload
	if err := pl.Unmarshal(pkt.Payload); err != nil {
		glog.V(2).Infof("link: malformed PONG: %v", err)
		return
	}
	c.mu.Lock()
	var w *pongWait
	for i, cand := range c.pongs {
		if cand.seq == pl.Seq && cand.ts == pl.TimestampUS {
			w = cand
			c.pongs = append(c.pongs[:i], c.pongs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	if w == nil {
		glog.V(2).Infof("link: stale PONG seq=%d", pl.Seq)
		return
	}
	w.ch <- time.Since(w.started)
}

func (c *Client) dropPong(w *pongWait) {
	c.mu.Lock()
	for i, cand := range c.pongs {
		if cand == w {
			c.pongs = append(c.pongs[:i], c.pongs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

func (c *Client) handleAck(pkt *wire.Packet) {
	idx := pkt.FragIndex
	if len(pkt.Payload) > 0 {
		idx = pkt.Payload[0]
	}
	c.mu.Lock()
	w := c.ack
	if w != nil && w.frameNum == pkt.FrameNum && w.fragIndex == idx {
		c.ack = nil
	} else {
		w = nil
	}
	c.mu.Unlock()
	if w == nil {
		glog.V(2).Infof("link: stray %s for frame %d fragment %d",
			wire.MsgName(pkt.Type), pkt.FrameNum, idx)
		return
	}
	if pkt.Type == wire.MsgNack {
		w.ch <- &NackError{FrameNum: pkt.FrameNum, FragIndex: idx}
	} else {
		w.ch <- nil
	}
}

func (c *Client) handleStats(ctx context.Context, pkt *wire.Packet) {
	var pl wire.StatsPayload
	if err := pl.Unmarshal(pkt.Payload); err != nil {
		glog.V(2).Infof("link: malformed STATS_RESPONSE: %v", err)
		return
	}
	c.mu.Lock()
	w := c.statsW
	c.statsW = nil
	c.mu.Unlock()
	if w == nil {
		c.event(ctx, pkt)
		return
	}
	w.ch <- &pl
}

func (c *Client) handleResponse(ctx context.Context, pkt *wire.Packet) {
	if pkt.Type&wire.CmdReplyFlag == 0 {
		c.event(ctx, pkt)
		return
	}
	c.mu.Lock()
	w := c.call
	if w != nil && pkt.Type == w.cmd|wire.CmdReplyFlag {
		c.call = nil
	} else {
		w = nil
	}
	c.mu.Unlock()
	if w == nil {
		glog.V(2).Infof("link: stray response %#02x", pkt.Type)
		return
	}
	w.ch <- pkt
}

func (c *Client) event(_ context.Context, pkt *wire.Packet) {
	select {
	case c.eventCh <- pkt:
	default:
		glog.V(2).Infof("link: event dropped, consumer behind")
	}
}
