package frag

import "errors"

var (
	// ErrFrameSize indicates a frame buffer doesn't match the target size.
	ErrFrameSize = errors.New("invalid frame size")
	// ErrTooManyFragments indicates the fragment size is too small to
	// fit the fragment count in one byte.
	ErrTooManyFragments = errors.New("too many fragments")
	// ErrNotFragment indicates the packet carries no frame data.
	ErrNotFragment = errors.New("not a frame packet")
	// ErrTargetMismatch indicates frame data for another target.
	ErrTargetMismatch = errors.New("frame packet for another target")
	// ErrFragmentIndex indicates a fragment index outside the announced set.
	ErrFragmentIndex = errors.New("fragment index out of range")
	// ErrFragmentCount indicates fragments of one frame announcing
	// different totals.
	ErrFragmentCount = errors.New("fragment count mismatch")
	// ErrFragmentSize indicates a fragment payload that cannot fit in
	// the frame at its offset.
	ErrFragmentSize = errors.New("fragment size out of range")
	// ErrReassemblyLength indicates a completed fragment set that doesn't
	// add up to a full frame.
	ErrReassemblyLength = errors.New("reassembled length mismatch")
)
