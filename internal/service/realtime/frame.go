package realtime

// FrameKind classifies an inbound frame delivered by the transport.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
	FrameClose
	FrameContinuation
	FrameNop
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameClose:
		return "close"
	case FrameContinuation:
		return "continuation"
	case FrameNop:
		return "nop"
	default:
		return "unknown"
	}
}

// Close codes used by the session when it has to pick one itself.
const (
	CloseNormalClosure    = 1000
	CloseGoingAway        = 1001
	CloseNoStatusReceived = 1005
)

// CloseReason is the optional payload of a close frame.
type CloseReason struct {
	Code int
	Text string
}

// Frame is one inbound message unit. Only the field matching Kind is set.
type Frame struct {
	Kind   FrameKind
	Text   string
	Data   []byte
	Reason *CloseReason
}

// TextFrame builds a text frame.
func TextFrame(text string) Frame {
	return Frame{Kind: FrameText, Text: text}
}

// BinaryFrame builds a binary frame.
func BinaryFrame(data []byte) Frame {
	return Frame{Kind: FrameBinary, Data: data}
}

// CloseFrame builds a close frame; reason may be nil.
func CloseFrame(reason *CloseReason) Frame {
	return Frame{Kind: FrameClose, Reason: reason}
}
