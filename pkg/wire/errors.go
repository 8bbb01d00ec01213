package wire

import "errors"

var (
	// ErrPacketTooShort indicates the buffer ends before the header does.
	ErrPacketTooShort = errors.New("packet too short")
	// ErrBadMagic indicates the buffer doesn't start with the sync marker.
	ErrBadMagic = errors.New("bad magic")
	// ErrIncompletePacket indicates the buffer ends before the declared
	// payload and footer do.
	ErrIncompletePacket = errors.New("incomplete packet")
	// ErrChecksumMismatch indicates the received and computed checksums differ.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrBadEndMarker indicates the extended-form end byte is wrong.
	ErrBadEndMarker = errors.New("bad end marker")
	// ErrPayloadTooLarge indicates the payload exceeds the format limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrPayloadSize indicates a typed payload has the wrong size.
	ErrPayloadSize = errors.New("unexpected payload size")
)
