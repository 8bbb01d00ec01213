package frag

import (
	"time"

	"github.com/featherforge/arcos.go/pkg/wire"
)

// State of a Reassembler.
type State int

const (
	// StateIdle means no frame is in progress.
	StateIdle State = iota
	// StateCollecting means some fragments of a frame arrived.
	StateCollecting
	// StateComplete means the last accepted packet finished a frame.
	StateComplete
)

// Frame is one fully reassembled display frame.
type Frame struct {
	Target wire.Target
	Num    uint16
	Data   []byte
}

// DropReason classifies discarded partial frames.
type DropReason int

const (
	// DropSuperseded means fragments of another frame arrived first.
	DropSuperseded DropReason = iota
	// DropFragmentCount means a fragment announced a different total.
	DropFragmentCount
	// DropBadLength means the fragment set missed the exact frame size.
	DropBadLength
	// DropIdle means the frame sat incomplete past the idle limit.
	DropIdle
)

// String returns the reason name.
func (r DropReason) String() string {
	switch r {
	case DropFragmentCount:
		return "fragment count"
	case DropBadLength:
		return "bad length"
	case DropIdle:
		return "idle"
	}
	return "superseded"
}

// Drop describes one discarded partial frame.
type Drop struct {
	Target wire.Target
	Num    uint16
	Reason DropReason
	Got    int // fragments held when dropped
	Total  int // fragments announced
}

// AcceptResult reports what one packet did to the frame in progress.
// Frame and Drop may both be set when a full-frame packet displaced a
// partial one.
type AcceptResult struct {
	Frame *Frame
	Drop  *Drop
}

// Reassembler rebuilds one target's frames from fragment packets.
// Completion is decided by per-index presence, never by byte counts,
// so duplicated fragments can't fake a full frame.
type Reassembler struct {
	target wire.Target
	size   int

	state    State
	frameNum uint16
	total    int
	received []bool
	got      int
	rebuilt  int
	buf      []byte
	lastFrag time.Time
}

// NewReassembler creates a Reassembler for one display target.
// fragmentSize must match the sender's, wire.DefaultFragmentSize when
// zero.
func NewReassembler(target wire.Target, fragmentSize int) *Reassembler {
	if fragmentSize <= 0 {
		fragmentSize = wire.DefaultFragmentSize
	}
	return &Reassembler{target: target, size: fragmentSize}
}

// Target returns the display target this Reassembler serves.
func (r *Reassembler) Target() wire.Target {
	return r.target
}

// State returns the current state.
func (r *Reassembler) State() State {
	return r.state
}

// Reset discards any frame in progress.
func (r *Reassembler) Reset() {
	r.state = StateIdle
	r.total, r.got, r.rebuilt = 0, 0, 0
	r.received = nil
	r.buf = nil
}

// Accept consumes one verified packet at the given time. A packet of a
// different frame number supersedes the frame in progress. Duplicated
// fragments change nothing.
func (r *Reassembler) Accept(pkt *wire.Packet, now time.Time) (AcceptResult, error) {
	if pkt.Format != wire.FormatExtended {
		return AcceptResult{}, ErrNotFragment
	}
	target, ok := wire.FrameTarget(pkt.Type)
	if !ok {
		return AcceptResult{}, ErrNotFragment
	}
	if target != r.target {
		return AcceptResult{}, ErrTargetMismatch
	}
	if !wire.IsFrag(pkt.Type) {
		return r.acceptFull(pkt)
	}
	return r.acceptFragment(pkt, now)
}

// acceptFull handles a full-frame packet, which completes in one shot.
func (r *Reassembler) acceptFull(pkt *wire.Packet) (res AcceptResult, err error) {
	if len(pkt.Payload) != r.target.FrameSize() {
		return res, ErrFrameSize
	}
	if r.state == StateCollecting && r.frameNum != pkt.FrameNum {
		res.Drop = r.drop(DropSuperseded)
	}
	r.Reset()
	r.state = StateComplete
	r.frameNum = pkt.FrameNum
	res.Frame = &Frame{
		Target: r.target,
		Num:    pkt.FrameNum,
		Data:   append([]byte(nil), pkt.Payload...),
	}
	return
}

func (r *Reassembler) acceptFragment(pkt *wire.Packet, now time.Time) (res AcceptResult, err error) {
	if pkt.FragTotal == 0 || int(pkt.FragIndex) >= int(pkt.FragTotal) {
		return res, ErrFragmentIndex
	}
	offset := int(pkt.FragIndex) * r.size
	if len(pkt.Payload) == 0 || len(pkt.Payload) > r.size ||
		offset+len(pkt.Payload) > r.target.FrameSize() {
		return res, ErrFragmentSize
	}

	if r.state == StateCollecting && r.frameNum != pkt.FrameNum {
		res.Drop = r.drop(DropSuperseded)
		r.Reset()
	}
	if r.state != StateCollecting {
		r.state = StateCollecting
		r.frameNum = pkt.FrameNum
		r.total = int(pkt.FragTotal)
		r.received = make([]bool, r.total)
		r.buf = make([]byte, r.target.FrameSize())
	} else if r.total != int(pkt.FragTotal) {
		res.Drop = r.drop(DropFragmentCount)
		r.Reset()
		return res, ErrFragmentCount
	}

	r.lastFrag = now
	if r.received[pkt.FragIndex] {
		return
	}
	copy(r.buf[offset:], pkt.Payload)
	r.received[pkt.FragIndex] = true
	r.got++
	r.rebuilt += len(pkt.Payload)
	if r.got < r.total {
		return
	}

	if r.rebuilt != r.target.FrameSize() {
		res.Drop = r.drop(DropBadLength)
		r.Reset()
		return res, ErrReassemblyLength
	}
	frame := &Frame{Target: r.target, Num: r.frameNum, Data: r.buf}
	r.Reset()
	r.state = StateComplete
	r.frameNum = frame.Num
	res.Frame = frame
	return
}

// DiscardIdle drops the frame in progress when no fragment arrived for
// the given timeout. It returns the drop, or nil when nothing happened.
func (r *Reassembler) DiscardIdle(now time.Time, timeout time.Duration) *Drop {
	if r.state != StateCollecting || timeout <= 0 || now.Sub(r.lastFrag) < timeout {
		return nil
	}
	d := r.drop(DropIdle)
	r.Reset()
	return d
}

func (r *Reassembler) drop(reason DropReason) *Drop {
	return &Drop{
		Target: r.target,
		Num:    r.frameNum,
		Reason: reason,
		Got:    r.got,
		Total:  r.total,
	}
}
