// Package serial adapts a UART port to the link stream interface.
package serial

import (
	"time"

	"go.bug.st/serial"
)

// DefaultBaud is the display-link line rate.
const DefaultBaud = 10_000_000

// Stream wraps a serial port. The driver reports an expired read
// timeout as a zero-length read, which the session loop treats the
// same as a deadline error.
type Stream struct {
	Port serial.Port

	applied time.Duration
}

// Open opens the named port at the given baud rate, DefaultBaud when
// zero.
func Open(name string, baud int) (*Stream, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	return &Stream{Port: port}, nil
}

// New wraps an already opened port.
func New(port serial.Port) *Stream {
	return &Stream{Port: port}
}

// Read reads from the port.
func (s *Stream) Read(b []byte) (int, error) {
	return s.Port.Read(b)
}

// Write writes to the port.
func (s *Stream) Write(b []byte) (int, error) {
	return s.Port.Write(b)
}

// SetReadDeadline maps the absolute deadline onto the port's relative
// read timeout. A zero time lets reads block indefinitely. Meant for
// the single goroutine running the session loop.
func (s *Stream) SetReadDeadline(t time.Time) error {
	d := serial.NoTimeout
	if !t.IsZero() {
		d = time.Until(t).Round(time.Millisecond)
		if d < time.Millisecond {
			d = time.Millisecond
		}
	}
	if d == s.applied {
		return nil
	}
	if err := s.Port.SetReadTimeout(d); err != nil {
		return err
	}
	s.applied = d
	return nil
}

// Close closes the port.
func (s *Stream) Close() error {
	return s.Port.Close()
}
