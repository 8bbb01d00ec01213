// Package transport abstracts the byte streams display links run over.
package transport

import (
	"io"
	"time"
)

// Stream is the byte-level transport of one link. Reads must honor the
// deadline so a quiet line surfaces as timeouts instead of a blocked
// session loop.
type Stream interface {
	io.ReadWriter
	// SetReadDeadline bounds blocking of the next Read. A zero time
	// means no bound.
	SetReadDeadline(t time.Time) error
}

// timeoutError satisfies os.IsTimeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "read deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// ErrDeadline is returned by Streams of this package when a read
// deadline expires.
var ErrDeadline error = timeoutError{}
