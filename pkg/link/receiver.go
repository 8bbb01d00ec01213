package link

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/featherforge/arcos.go/pkg/frag"
	"github.com/featherforge/arcos.go/pkg/wire"
)

// Receiver drives the display side of a link: it answers pings and
// stats queries, acknowledges fragments when asked to, and hands
// completed frames to the consumer. It takes over the session's
// handlers.
type Receiver struct {
	// AckMode makes the receiver answer every fragment with ACK or
	// NACK. Leave off for streaming senders.
	AckMode bool
	// StatusEvery emits unsolicited status reports at this period.
	// Zero disables them.
	StatusEvery time.Duration

	session *Session
	started time.Time
	frameCh chan *frag.Frame
	dropCh  chan *frag.Drop
	eventCh chan *wire.Packet

	mu      sync.Mutex
	hub75OK bool
	oledOK  bool
}

// NewReceiver creates a Receiver and wraps the session.
func NewReceiver(session *Session) *Receiver {
	r := &Receiver{
		session: session,
		started: time.Now(),
		frameCh: make(chan *frag.Frame, 2),
		dropCh:  make(chan *frag.Drop, 8),
		eventCh: make(chan *wire.Packet, 16),
	}
	session.Handler = r
	session.Frames = HandleFrameFunc(r.frameIn)
	session.Fragments = FragmentInFunc(r.fragmentIn)
	session.Drops = HandleDropFunc(r.dropIn)
	return r
}

// Session returns the wrapped session.
func (r *Receiver) Session() *Session {
	return r.session
}

// FrameChan delivers completed display frames. A slow consumer loses
// frames, not the link.
func (r *Receiver) FrameChan() <-chan *frag.Frame {
	return r.frameCh
}

// DropChan reports abandoned partial frames.
func (r *Receiver) DropChan() <-chan *frag.Drop {
	return r.dropCh
}

// EventChan delivers control packets the receiver doesn't answer by
// itself, pacing and brightness requests among them.
func (r *Receiver) EventChan() <-chan *wire.Packet {
	return r.eventCh
}

// SetDisplayOK records whether a display surface is healthy, reported
// in status answers.
func (r *Receiver) SetDisplayOK(target wire.Target, ok bool) {
	r.mu.Lock()
	if target == wire.TargetOled {
		r.oledOK = ok
	} else {
		r.hub75OK = ok
	}
	r.mu.Unlock()
}

// Respond answers a harness command on a short-format link.
func (r *Receiver) Respond(cmd byte, status byte, data []byte) error {
	payload := append([]byte{status}, data...)
	return r.session.Send(wire.NewShort(cmd|wire.CmdReplyFlag, payload))
}

// Run processes the link until the context ends, emitting periodic
// status reports when configured. Implements Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	if r.StatusEvery > 0 {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go r.statusLoop(subCtx)
	}
	return r.session.Run(ctx)
}

func (r *Receiver) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(r.StatusEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sendStatus(); err != nil {
				glog.V(2).Infof("link: status report failed: %v", err)
			}
		}
	}
}

func (r *Receiver) sendStatus() error {
	pl := r.status()
	return r.session.Send(wire.NewExtended(wire.MsgStatus, pl.Marshal()))
}

// status assembles the report from the live counters. FPS fields stay
// zero, nothing here measures refresh.
func (r *Receiver) status() wire.StatusPayload {
	stats := r.session.Stats()
	snap := stats.Snapshot()
	r.mu.Lock()
	hub75OK, oledOK := r.hub75OK, r.oledOK
	r.mu.Unlock()
	pl := wire.StatusPayload{
		UptimeMS:      uint32(time.Since(r.started).Milliseconds()),
		FramesRx:      uint16(snap.RxFrames),
		FramesDropped: uint16(stats.FramesDropped()),
	}
	if hub75OK {
		pl.Hub75OK = 1
	}
	if oledOK {
		pl.OledOK = 1
	}
	return pl
}

// HandlePacket implements PacketHandler.
func (r *Receiver) HandlePacket(ctx context.Context, pkt *wire.Packet) {
	if pkt.Format == wire.FormatShort {
		r.handleCommand(ctx, pkt)
		return
	}
	switch pkt.Type {
	case wire.MsgPing:
		r.handlePing(pkt)
	case wire.MsgStatsRequest:
		r.handleStatsRequest()
	default:
		r.event(pkt)
	}
}

// handlePing echoes the payload back so the sender can match its own
// timestamp, the sequence rides in the header frame number too.
func (r *Receiver) handlePing(pkt *wire.Packet) {
	pong := wire.NewExtended(wire.MsgPong, pkt.Payload)
	pong.FrameNum = pkt.FrameNum
	var pl wire.PingPayload
	if err := pl.Unmarshal(pkt.Payload); err == nil {
		pong.FrameNum = pl.Seq
	}
	if err := r.session.Send(pong); err != nil {
		glog.V(2).Infof("link: pong failed: %v", err)
	}
}

func (r *Receiver) handleStatsRequest() {
	snap := r.session.Stats().Snapshot()
	rsp := wire.NewExtended(wire.MsgStatsResponse, snap.Marshal())
	if err := r.session.Send(rsp); err != nil {
		glog.V(2).Infof("link: stats response failed: %v", err)
	}
}

// handleCommand auto-answers the trivial harness commands and leaves
// the rest to the embedder via EventChan and Respond.
func (r *Receiver) handleCommand(_ context.Context, pkt *wire.Packet) {
	if pkt.Type&wire.CmdReplyFlag != 0 {
		// a response on the serving end is someone else's traffic
		glog.V(2).Infof("link: stray response %#02x", pkt.Type)
		return
	}
	switch pkt.Type {
	case wire.CmdNop:
	case wire.CmdPing:
		if err := r.Respond(pkt.Type, wire.RspOK, pkt.Payload); err != nil {
			glog.V(2).Infof("link: ping response failed: %v", err)
		}
	default:
		r.event(pkt)
	}
}

// fragmentIn acknowledges fragments in acked mode, refusing the ones
// the reassembler rejected.
func (r *Receiver) fragmentIn(_ context.Context, pkt *wire.Packet, err error) {
	if !r.AckMode || !wire.IsFrag(pkt.Type) {
		return
	}
	reply := wire.MsgAck
	if err != nil {
		reply = wire.MsgNack
	}
	ack := wire.NewExtended(reply, []byte{pkt.FragIndex})
	ack.FrameNum = pkt.FrameNum
	ack.FragIndex = pkt.FragIndex
	if err := r.session.Send(ack); err != nil {
		glog.V(2).Infof("link: %s failed: %v", wire.MsgName(reply), err)
	}
}

func (r *Receiver) frameIn(_ context.Context, frame *frag.Frame) {
	select {
	case r.frameCh <- frame:
	default:
		r.session.Stats().countDroppedFrame()
		glog.V(2).Infof("link: frame %d of %v dropped, consumer behind",
			frame.Num, frame.Target)
	}
}

func (r *Receiver) dropIn(_ context.Context, d *frag.Drop) {
	select {
	case r.dropCh <- d:
	default:
	}
}

func (r *Receiver) event(pkt *wire.Packet) {
	select {
	case r.eventCh <- pkt:
	default:
		glog.V(2).Infof("link: event dropped, consumer behind")
	}
}
