package link

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/featherforge/arcos.go/pkg/frag"
	"github.com/featherforge/arcos.go/pkg/transport"
	"github.com/featherforge/arcos.go/pkg/wire"
)

// PacketHandler is called for control packets the session doesn't
// consume itself.
type PacketHandler interface {
	HandlePacket(context.Context, *wire.Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *wire.Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *wire.Packet) {
	f(ctx, pkt)
}

// FrameHandler is called for every reassembled display frame.
type FrameHandler interface {
	HandleFrame(context.Context, *frag.Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *frag.Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *frag.Frame) {
	f(ctx, frame)
}

// FragmentNotifier is called for every frame-carrying packet that made
// it through the scanner, with the reassembler's verdict.
type FragmentNotifier interface {
	FragmentIn(context.Context, *wire.Packet, error)
}

// FragmentInFunc is func type of FragmentNotifier.
type FragmentInFunc func(context.Context, *wire.Packet, error)

// FragmentIn implements FragmentNotifier.
func (f FragmentInFunc) FragmentIn(ctx context.Context, pkt *wire.Packet, err error) {
	f(ctx, pkt, err)
}

// DropHandler is called when a partial frame is abandoned.
type DropHandler interface {
	HandleDrop(context.Context, *frag.Drop)
}

// HandleDropFunc is func type of DropHandler.
type HandleDropFunc func(context.Context, *frag.Drop)

// HandleDrop implements DropHandler.
func (f HandleDropFunc) HandleDrop(ctx context.Context, d *frag.Drop) {
	f(ctx, d)
}

// Session defaults.
const (
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultIdleTimeout = 250 * time.Millisecond
)

// Session runs one link over a byte stream: it scans inbound bytes
// into packets, rebuilds frames, hands the rest to its handlers and
// keeps the line counters. Corrupt input never stops the loop.
type Session struct {
	Stream    transport.Stream
	Handler   PacketHandler
	Frames    FrameHandler
	Fragments FragmentNotifier
	Drops     DropHandler

	// ReadTimeout bounds one blocking read. A packet cut off longer
	// than this is abandoned where it stalled.
	ReadTimeout time.Duration
	// IdleTimeout abandons a partial frame no fragment arrived for.
	IdleTimeout time.Duration

	format   wire.Format
	fragSize int
	scanner  *Scanner
	asm      map[wire.Target]*frag.Reassembler
	stats    Stats

	writeLock sync.Mutex
}

// NewSession creates a Session of the given format over the stream.
// fragmentSize must match the far end, wire.DefaultFragmentSize when
// zero.
func NewSession(stream transport.Stream, format wire.Format, fragmentSize int) *Session {
	if fragmentSize <= 0 {
		fragmentSize = wire.DefaultFragmentSize
	}
	s := &Session{
		Stream:      stream,
		ReadTimeout: DefaultReadTimeout,
		IdleTimeout: DefaultIdleTimeout,
		format:      format,
		fragSize:    fragmentSize,
		scanner:     NewScanner(format),
	}
	if format == wire.FormatExtended {
		s.asm = map[wire.Target]*frag.Reassembler{
			wire.TargetHub75: frag.NewReassembler(wire.TargetHub75, fragmentSize),
			wire.TargetOled:  frag.NewReassembler(wire.TargetOled, fragmentSize),
		}
	}
	return s
}

// Format returns the wire format of the session.
func (s *Session) Format() wire.Format {
	return s.format
}

// FragmentSize returns the fragment payload size of the session.
func (s *Session) FragmentSize() int {
	return s.fragSize
}

// Stats returns the live counters of the session.
func (s *Session) Stats() *Stats {
	return &s.stats
}

// Send writes one packet, whole, so packets of concurrent senders
// never interleave on the stream.
func (s *Session) Send(pkt *wire.Packet) error {
	if s.Stream == nil {
		return ErrNotReady
	}
	if pkt.Format != s.format {
		return ErrFormat
	}
	s.writeLock.Lock()
	n, err := pkt.WriteTo(s.Stream)
	s.writeLock.Unlock()
	if err != nil {
		return err
	}
	s.stats.addTxBytes(n)
	if _, ok := wire.FrameTarget(pkt.Type); ok && pkt.Format == wire.FormatExtended {
		if wire.IsFrag(pkt.Type) {
			s.stats.countTxFragment()
		} else {
			s.stats.countTxFrame()
		}
	}
	return nil
}

// Run processes inbound bytes until the context ends or the stream
// fails hard. Read timeouts are not failures, they pace the stall and
// idle bookkeeping.
func (s *Session) Run(ctx context.Context) error {
	if s.Stream == nil {
		return ErrNotReady
	}
	glog.V(1).Infof("link session up, format=%v", s.format)
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Stream.SetReadDeadline(time.Now().Add(s.readTimeout())); err != nil {
			return err
		}
		n, err := s.Stream.Read(buf)
		now := time.Now()
		if err != nil {
			if !os.IsTimeout(err) {
				return err
			}
			s.applyScan(ctx, s.scanner.Timeout(), now)
		} else if n == 0 {
			s.applyScan(ctx, s.scanner.Timeout(), now)
		} else {
			s.stats.addRxBytes(n)
			for _, b := range buf[:n] {
				s.applyScan(ctx, s.scanner.Feed(b), now)
			}
		}
		s.expireIdle(ctx, now)
	}
}

func (s *Session) readTimeout() time.Duration {
	if s.ReadTimeout > 0 {
		return s.ReadTimeout
	}
	return DefaultReadTimeout
}

// applyScan books one scan step. Skipped bytes count as sync noise
// only when they didn't already count as a broken packet.
func (s *Session) applyScan(ctx context.Context, res ScanResult, now time.Time) {
	switch {
	case res.Err == nil:
		if res.Skipped > 0 {
			s.stats.addSyncErrors(res.Skipped)
			glog.V(4).Infof("link: skipped %d stray bytes", res.Skipped)
		}
	case res.Err == ErrHeaderTimeout, res.Err == ErrPayloadTimeout, res.Err == ErrFooterTimeout:
		s.stats.countTimeout()
		glog.V(2).Infof("link: %v", res.Err)
	default:
		s.stats.countChecksumError()
		glog.V(2).Infof("link: dropped packet: %v", res.Err)
	}
	if res.Packet != nil {
		s.dispatch(ctx, res.Packet, now)
	}
}

func (s *Session) dispatch(ctx context.Context, pkt *wire.Packet, now time.Time) {
	if pkt.Format == wire.FormatExtended {
		if _, ok := wire.FrameTarget(pkt.Type); ok {
			s.acceptFrame(ctx, pkt, now)
			return
		}
		glog.V(4).Infof("link: packet %s len=%d", wire.MsgName(pkt.Type), len(pkt.Payload))
	} else {
		glog.V(4).Infof("link: command %#02x len=%d", pkt.Type, len(pkt.Payload))
	}
	if h := s.Handler; h != nil {
		h.HandlePacket(ctx, pkt)
	}
}

func (s *Session) acceptFrame(ctx context.Context, pkt *wire.Packet, now time.Time) {
	target, _ := wire.FrameTarget(pkt.Type)
	if wire.IsFrag(pkt.Type) {
		s.stats.countRxFragment()
	}
	res, err := s.asm[target].Accept(pkt, now)
	if n := s.Fragments; n != nil {
		n.FragmentIn(ctx, pkt, err)
	}
	if err != nil {
		glog.V(2).Infof("link: %v fragment rejected: %v", target, err)
	}
	s.frameResult(ctx, res)
}

func (s *Session) frameResult(ctx context.Context, res frag.AcceptResult) {
	if res.Drop != nil {
		s.stats.countDroppedFrame()
		glog.V(2).Infof("link: dropped frame %d of %v (%v, %d/%d fragments)",
			res.Drop.Num, res.Drop.Target, res.Drop.Reason, res.Drop.Got, res.Drop.Total)
		if h := s.Drops; h != nil {
			h.HandleDrop(ctx, res.Drop)
		}
	}
	if res.Frame != nil {
		s.stats.countRxFrame()
		glog.V(3).Infof("link: frame %d of %v complete, %d bytes",
			res.Frame.Num, res.Frame.Target, len(res.Frame.Data))
		if h := s.Frames; h != nil {
			h.HandleFrame(ctx, res.Frame)
		}
	}
}

func (s *Session) expireIdle(ctx context.Context, now time.Time) {
	if s.IdleTimeout <= 0 {
		return
	}
	for _, asm := range s.asm {
		if d := asm.DiscardIdle(now, s.IdleTimeout); d != nil {
			s.frameResult(ctx, frag.AcceptResult{Drop: d})
		}
	}
}
