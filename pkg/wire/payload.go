package wire

import "encoding/binary"

// Typed payload sizes.
const (
	PingPayloadLen   = 6
	StatusPayloadLen = 14
	StatsPayloadLen  = 48
)

// PingPayload is the body of MsgPing, echoed back unchanged in MsgPong.
// Seq is mirrored in the header frame number of both packets.
type PingPayload struct {
	TimestampUS uint32
	Seq         uint16
}

// Marshal encodes the payload.
func (p *PingPayload) Marshal() []byte {
	b := make([]byte, PingPayloadLen)
	binary.LittleEndian.PutUint32(b[0:4], p.TimestampUS)
	binary.LittleEndian.PutUint16(b[4:6], p.Seq)
	return b
}

// Unmarshal decodes the payload.
func (p *PingPayload) Unmarshal(b []byte) error {
	if len(b) != PingPayloadLen {
		return ErrPayloadSize
	}
	p.TimestampUS = binary.LittleEndian.Uint32(b[0:4])
	p.Seq = binary.LittleEndian.Uint16(b[4:6])
	return nil
}

// StatusPayload is the body of MsgStatus. The FPS fields exist on the
// wire for the displays, senders that don't measure them leave zero.
type StatusPayload struct {
	UptimeMS      uint32
	Hub75FPS      uint16
	OledFPS       uint16
	FramesRx      uint16
	FramesDropped uint16
	Hub75OK       uint8
	OledOK        uint8
}

// Marshal encodes the payload.
func (p *StatusPayload) Marshal() []byte {
	b := make([]byte, StatusPayloadLen)
	binary.LittleEndian.PutUint32(b[0:4], p.UptimeMS)
	binary.LittleEndian.PutUint16(b[4:6], p.Hub75FPS)
	binary.LittleEndian.PutUint16(b[6:8], p.OledFPS)
	binary.LittleEndian.PutUint16(b[8:10], p.FramesRx)
	binary.LittleEndian.PutUint16(b[10:12], p.FramesDropped)
	b[12], b[13] = p.Hub75OK, p.OledOK
	return b
}

// Unmarshal decodes the payload.
func (p *StatusPayload) Unmarshal(b []byte) error {
	if len(b) != StatusPayloadLen {
		return ErrPayloadSize
	}
	p.UptimeMS = binary.LittleEndian.Uint32(b[0:4])
	p.Hub75FPS = binary.LittleEndian.Uint16(b[4:6])
	p.OledFPS = binary.LittleEndian.Uint16(b[6:8])
	p.FramesRx = binary.LittleEndian.Uint16(b[8:10])
	p.FramesDropped = binary.LittleEndian.Uint16(b[10:12])
	p.Hub75OK, p.OledOK = b[12], b[13]
	return nil
}

// StatsPayload is the body of MsgStatsResponse, the link counter block
// of the answering end.
type StatsPayload struct {
	TxBytes        uint32
	RxBytes        uint32
	TxFrames       uint32
	RxFrames       uint32
	TxFragments    uint32
	RxFragments    uint32
	ChecksumErrors uint32
	SyncErrors     uint32
	TimeoutErrors  uint32
	Retries        uint32
	RetrySuccess   uint32
	LastRTTUS      uint32
}

// Marshal encodes the payload.
func (p *StatsPayload) Marshal() []byte {
	b := make([]byte, StatsPayloadLen)
	for i, v := range p.fields() {
		binary.LittleEndian.PutUint32(b[i*4:], *v)
	}
	return b
}

// Unmarshal decodes the payload.
func (p *StatsPayload) Unmarshal(b []byte) error {
	if len(b) != StatsPayloadLen {
		return ErrPayloadSize
	}
	for i, v := range p.fields() {
		*v = binary.LittleEndian.Uint32(b[i*4:])
	}
	return nil
}

func (p *StatsPayload) fields() []*uint32 {
	return []*uint32{
		&p.TxBytes, &p.RxBytes,
		&p.TxFrames, &p.RxFrames,
		&p.TxFragments, &p.RxFragments,
		&p.ChecksumErrors, &p.SyncErrors, &p.TimeoutErrors,
		&p.Retries, &p.RetrySuccess,
		&p.LastRTTUS,
	}
}
