package wire

import "encoding/binary"

// Framing bytes shared by both formats.
const (
	Sync1     byte = 0xAA
	Sync2     byte = 0x55
	SyncExt   byte = 0xCC
	EndMarker byte = 0x55
)

// Payload limits.
const (
	// MaxShortPayload is the short-form limit imposed by the one-byte
	// length field.
	MaxShortPayload = 255
	// DefaultFragmentSize is the payload size frames are split into.
	DefaultFragmentSize = 1024
	// MaxExtendedPayload bounds the declared length of an extended
	// packet. Receive buffers on both ends hold this much per packet.
	MaxExtendedPayload = DefaultFragmentSize + 64
)

const (
	shortHeaderLen = 4
	shortFooterLen = 1
	extHeaderLen   = 10
	extFooterLen   = 3
)

// Format selects one of the two wire framings.
type Format int

const (
	// FormatShort is the harness command/response framing.
	FormatShort Format = iota
	// FormatExtended is the frame transport and link control framing.
	FormatExtended
)

// Sync returns the sync marker opening a packet of the format.
func (f Format) Sync() []byte {
	if f == FormatExtended {
		return []byte{Sync1, Sync2, SyncExt}
	}
	return []byte{Sync1, Sync2}
}

// HeaderLen returns the header length including the sync marker.
func (f Format) HeaderLen() int {
	if f == FormatExtended {
		return extHeaderLen
	}
	return shortHeaderLen
}

// FooterLen returns the trailer length after the payload.
func (f Format) FooterLen() int {
	if f == FormatExtended {
		return extFooterLen
	}
	return shortFooterLen
}

// MaxPayload returns the payload limit of the format.
func (f Format) MaxPayload() int {
	if f == FormatExtended {
		return MaxExtendedPayload
	}
	return MaxShortPayload
}

// PayloadLen extracts the declared payload length from a full header.
func (f Format) PayloadLen(header []byte) (int, error) {
	if len(header) < f.HeaderLen() {
		return 0, ErrPacketTooShort
	}
	var n int
	if f == FormatExtended {
		n = int(binary.LittleEndian.Uint16(header[4:6]))
	} else {
		n = int(header[3])
	}
	if n > f.MaxPayload() {
		return 0, ErrPayloadTooLarge
	}
	return n, nil
}

// String returns the format name.
func (f Format) String() string {
	if f == FormatExtended {
		return "extended"
	}
	return "short"
}
