package wire

// Extended-form message types.
const (
	MsgPing          byte = 0x01
	MsgPong          byte = 0x02
	MsgAck           byte = 0x03
	MsgNack          byte = 0x04
	MsgStatus        byte = 0x05
	MsgFrameRequest  byte = 0x06
	MsgResendFrag    byte = 0x07
	MsgHub75Frame    byte = 0x10
	MsgHub75Frag     byte = 0x11
	MsgOledFrame     byte = 0x12
	MsgOledFrag      byte = 0x13
	MsgSetFPS        byte = 0x20
	MsgSetBrightness byte = 0x21
	MsgStatsRequest  byte = 0x30
	MsgStatsResponse byte = 0x31
)

// Short-form harness commands.
const (
	CmdNop          byte = 0x00
	CmdPing         byte = 0x01
	CmdRunTest      byte = 0x10
	CmdRunStress    byte = 0x11
	CmdCaptureFrame byte = 0x20
	CmdGetMetrics   byte = 0x30
	CmdGetState     byte = 0x31
	CmdGetTemp      byte = 0x32
	CmdSetClock     byte = 0x40
	CmdReset        byte = 0xF0
	CmdBootloader   byte = 0xFF

	// CmdReplyFlag is set on the command byte of a response.
	CmdReplyFlag byte = 0x80
)

// Short-form response status codes, first payload byte of a response.
const (
	RspOK       byte = 0x00
	RspError    byte = 0x01
	RspBusy     byte = 0x02
	RspTimeout  byte = 0x03
	RspCRCError byte = 0x04
	RspNotFound byte = 0x05
)

var msgNames = map[byte]string{
	MsgPing:          "PING",
	MsgPong:          "PONG",
	MsgAck:           "ACK",
	MsgNack:          "NACK",
	MsgStatus:        "STATUS",
	MsgFrameRequest:  "FRAME_REQUEST",
	MsgResendFrag:    "RESEND_FRAG",
	MsgHub75Frame:    "HUB75_FRAME",
	MsgHub75Frag:     "HUB75_FRAG",
	MsgOledFrame:     "OLED_FRAME",
	MsgOledFrag:      "OLED_FRAG",
	MsgSetFPS:        "SET_FPS",
	MsgSetBrightness: "SET_BRIGHTNESS",
	MsgStatsRequest:  "STATS_REQUEST",
	MsgStatsResponse: "STATS_RESPONSE",
}

// MsgName returns a readable name of an extended message type for logs.
func MsgName(msgType byte) string {
	if s, ok := msgNames[msgType]; ok {
		return s
	}
	return "UNKNOWN"
}
