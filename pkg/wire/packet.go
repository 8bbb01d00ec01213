package wire

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Packet is one unit on the link in either wire form.
// FrameNum, FragIndex and FragTotal ride in the extended header only;
// they are zero for short-form packets and most control messages.
type Packet struct {
	Format    Format
	Type      byte
	FrameNum  uint16
	FragIndex uint8
	FragTotal uint8
	Payload   []byte
}

// NewShort creates a short-form packet for a harness command.
func NewShort(cmd byte, payload []byte) *Packet {
	return &Packet{Format: FormatShort, Type: cmd, Payload: payload}
}

// NewExtended creates an extended-form packet.
func NewExtended(msgType byte, payload []byte) *Packet {
	return &Packet{Format: FormatExtended, Type: msgType, Payload: payload}
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() ([]byte, error) {
	if len(p.Payload) > p.Format.MaxPayload() {
		return nil, ErrPayloadTooLarge
	}
	if p.Format == FormatExtended {
		return p.bytesExtended(), nil
	}
	return p.bytesShort(), nil
}

// WriteTo writes the encoded packet with a single Write so packets of
// concurrent writers never interleave on the stream.
func (p *Packet) WriteTo(w io.Writer) (int, error) {
	b, err := p.Bytes()
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

func (p *Packet) bytesShort() []byte {
	n := len(p.Payload)
	b := make([]byte, shortHeaderLen+n+shortFooterLen)
	b[0], b[1] = Sync1, Sync2
	b[2], b[3] = p.Type, byte(n)
	copy(b[shortHeaderLen:], p.Payload)
	b[shortHeaderLen+n] = xorChecksum(b[2 : shortHeaderLen+n])
	return b
}

func (p *Packet) bytesExtended() []byte {
	n := len(p.Payload)
	b := make([]byte, extHeaderLen+n+extFooterLen)
	b[0], b[1], b[2] = Sync1, Sync2, SyncExt
	b[3] = p.Type
	binary.LittleEndian.PutUint16(b[4:6], uint16(n))
	binary.LittleEndian.PutUint16(b[6:8], p.FrameNum)
	b[8], b[9] = p.FragIndex, p.FragTotal
	copy(b[extHeaderLen:], p.Payload)
	binary.LittleEndian.PutUint16(b[extHeaderLen+n:], sumChecksum(b[:extHeaderLen+n]))
	b[extHeaderLen+n+2] = EndMarker
	return b
}

// Decode parses one packet of the given format from the head of buf.
// The checksum is verified before the payload is surfaced. Bytes past
// the end of the packet are left alone.
func Decode(f Format, buf []byte) (*Packet, error) {
	if len(buf) < f.HeaderLen() {
		return nil, ErrPacketTooShort
	}
	if !bytes.HasPrefix(buf, f.Sync()) {
		return nil, ErrBadMagic
	}
	n, err := f.PayloadLen(buf)
	if err != nil {
		return nil, err
	}
	if len(buf) < f.HeaderLen()+n+f.FooterLen() {
		return nil, ErrIncompletePacket
	}
	if f == FormatExtended {
		return decodeExtended(buf, n)
	}
	return decodeShort(buf, n)
}

func decodeShort(b []byte, n int) (*Packet, error) {
	end := shortHeaderLen + n
	if b[end] != xorChecksum(b[2:end]) {
		return nil, ErrChecksumMismatch
	}
	return &Packet{
		Format:  FormatShort,
		Type:    b[2],
		Payload: append([]byte(nil), b[shortHeaderLen:end]...),
	}, nil
}

func decodeExtended(b []byte, n int) (*Packet, error) {
	end := extHeaderLen + n
	if b[end+2] != EndMarker {
		return nil, ErrBadEndMarker
	}
	if binary.LittleEndian.Uint16(b[end:end+2]) != sumChecksum(b[:end]) {
		return nil, ErrChecksumMismatch
	}
	return &Packet{
		Format:    FormatExtended,
		Type:      b[3],
		FrameNum:  binary.LittleEndian.Uint16(b[6:8]),
		FragIndex: b[8],
		FragTotal: b[9],
		Payload:   append([]byte(nil), b[extHeaderLen:end]...),
	}, nil
}
