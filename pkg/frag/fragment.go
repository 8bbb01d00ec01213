// Package frag splits display frames into link fragments and rebuilds
// them on the receiving end.
package frag

import (
	"github.com/featherforge/arcos.go/pkg/wire"
)

// Fragmenter splits full frames into extended-form fragment packets.
type Fragmenter struct {
	// Size is the payload size per fragment, wire.DefaultFragmentSize
	// when zero. Both ends of a link must agree on it.
	Size int
}

// FragmentSize returns the effective fragment payload size.
func (f *Fragmenter) FragmentSize() int {
	if f.Size <= 0 {
		return wire.DefaultFragmentSize
	}
	return f.Size
}

// Split cuts a full frame for the target into fragment packets. All
// fragments carry Size payload bytes except the last one, which takes
// the remainder.
func (f *Fragmenter) Split(target wire.Target, frame []byte, frameNum uint16) ([]*wire.Packet, error) {
	if len(frame) != target.FrameSize() {
		return nil, ErrFrameSize
	}
	size := f.FragmentSize()
	if size > wire.MaxExtendedPayload {
		return nil, ErrFragmentSize
	}
	total := (len(frame) + size - 1) / size
	if total > 0xFF {
		return nil, ErrTooManyFragments
	}
	pkts := make([]*wire.Packet, 0, total)
	for i := 0; i < total; i++ {
		chunk := frame[i*size:]
		if len(chunk) > size {
			chunk = chunk[:size]
		}
		pkts = append(pkts, &wire.Packet{
			Format:    wire.FormatExtended,
			Type:      target.FragType(),
			FrameNum:  frameNum,
			FragIndex: uint8(i),
			FragTotal: uint8(total),
			Payload:   chunk,
		})
	}
	return pkts, nil
}
