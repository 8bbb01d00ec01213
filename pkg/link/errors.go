package link

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderTimeout indicates the stream stalled inside a header.
	ErrHeaderTimeout = errors.New("header timeout")
	// ErrPayloadTimeout indicates the stream stalled inside a payload.
	ErrPayloadTimeout = errors.New("payload timeout")
	// ErrFooterTimeout indicates the stream stalled inside a footer.
	ErrFooterTimeout = errors.New("footer timeout")
	// ErrPingTimeout indicates no matching PONG within the wait.
	ErrPingTimeout = errors.New("ping timeout")
	// ErrAckTimeout indicates no ACK for a fragment within the wait.
	ErrAckTimeout = errors.New("ack timeout")
	// ErrCallTimeout indicates no response for a harness command.
	ErrCallTimeout = errors.New("call timeout")
	// ErrRetriesExhausted indicates a fragment failed all delivery
	// attempts.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrFormat indicates an operation the session format doesn't carry.
	ErrFormat = errors.New("wrong link format")
	// ErrNotReady indicates the session has no stream.
	ErrNotReady = errors.New("not ready")
	// ErrPending indicates a request of the same kind is still waiting.
	ErrPending = errors.New("request already pending")
)

// NackError reports the display end refused a fragment.
type NackError struct {
	FrameNum  uint16
	FragIndex uint8
}

// Error implements error.
func (e *NackError) Error() string {
	return fmt.Sprintf("fragment %d of frame %d refused", e.FragIndex, e.FrameNum)
}

// StatusError wraps a non-OK status of a harness command response.
type StatusError struct {
	Cmd    byte
	Status byte
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("command %#02x status %d", e.Cmd, e.Status)
}
