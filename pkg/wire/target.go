package wire

// Target identifies a display surface on the GPU end of the link.
type Target int

const (
	// TargetHub75 is the RGB matrix panel.
	TargetHub75 Target = iota
	// TargetOled is the monochrome OLED.
	TargetOled
)

// Display geometry. Frame sizes are fixed by the panels, both ends
// know them a priori.
const (
	Hub75Width  = 128
	Hub75Height = 32
	OledWidth   = 128
	OledHeight  = 128

	// Hub75FrameSize is one RGB888 matrix frame.
	Hub75FrameSize = Hub75Width * Hub75Height * 3
	// OledFrameSize is one 1bpp OLED frame.
	OledFrameSize = OledWidth * OledHeight / 8
)

// FrameSize returns the exact byte size of one full frame.
func (t Target) FrameSize() int {
	if t == TargetOled {
		return OledFrameSize
	}
	return Hub75FrameSize
}

// FrameType returns the full-frame message type of the target.
func (t Target) FrameType() byte {
	if t == TargetOled {
		return MsgOledFrame
	}
	return MsgHub75Frame
}

// FragType returns the fragment message type of the target.
func (t Target) FragType() byte {
	if t == TargetOled {
		return MsgOledFrag
	}
	return MsgHub75Frag
}

// String returns the target name.
func (t Target) String() string {
	if t == TargetOled {
		return "oled"
	}
	return "hub75"
}

// FrameTarget maps a frame or fragment message type to its target.
func FrameTarget(msgType byte) (Target, bool) {
	switch msgType {
	case MsgHub75Frame, MsgHub75Frag:
		return TargetHub75, true
	case MsgOledFrame, MsgOledFrag:
		return TargetOled, true
	}
	return 0, false
}

// IsFrag reports whether the message type carries one frame fragment.
func IsFrag(msgType byte) bool {
	return msgType == MsgHub75Frag || msgType == MsgOledFrag
}
