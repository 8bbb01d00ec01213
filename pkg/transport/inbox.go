package transport

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrBacklog is returned by Inbox.Put when the reader is too far
// behind and the chunk was discarded.
var ErrBacklog = errors.New("inbox backlog full, chunk dropped")

const inboxDepth = 64

// Inbox turns message-oriented deliveries into a deadline-aware byte
// stream. Message transports push inbound chunks with Put and expose
// Read and SetReadDeadline as their Stream side. Put never blocks, a
// full inbox drops the chunk the way a saturated line would.
type Inbox struct {
	recv   chan []byte
	closed chan struct{}
	once   sync.Once

	mu       sync.Mutex
	leftover []byte
	deadline time.Time
}

// NewInbox creates an empty Inbox.
func NewInbox() *Inbox {
	return &Inbox{
		recv:   make(chan []byte, inboxDepth),
		closed: make(chan struct{}),
	}
}

// Put queues one inbound chunk. The chunk is copied.
func (x *Inbox) Put(chunk []byte) error {
	select {
	case <-x.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case x.recv <- append([]byte(nil), chunk...):
		return nil
	default:
		return ErrBacklog
	}
}

// Read hands out buffered bytes, blocking up to the read deadline.
func (x *Inbox) Read(b []byte) (int, error) {
	x.mu.Lock()
	if len(x.leftover) > 0 {
		n := copy(b, x.leftover)
		x.leftover = x.leftover[n:]
		x.mu.Unlock()
		return n, nil
	}
	deadline := x.deadline
	x.mu.Unlock()

	select {
	case chunk := <-x.recv:
		return x.take(b, chunk), nil
	default:
	}

	var expire <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return 0, ErrDeadline
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		expire = timer.C
	}
	select {
	case chunk := <-x.recv:
		return x.take(b, chunk), nil
	case <-expire:
		return 0, ErrDeadline
	case <-x.closed:
		select {
		case chunk := <-x.recv:
			return x.take(b, chunk), nil
		default:
			return 0, io.EOF
		}
	}
}

func (x *Inbox) take(b, chunk []byte) int {
	n := copy(b, chunk)
	if n < len(chunk) {
		x.mu.Lock()
		x.leftover = append(x.leftover, chunk[n:]...)
		x.mu.Unlock()
	}
	return n
}

// SetReadDeadline bounds blocking of the next Read.
func (x *Inbox) SetReadDeadline(t time.Time) error {
	x.mu.Lock()
	x.deadline = t
	x.mu.Unlock()
	return nil
}

// Close wakes blocked reads with EOF once drained.
func (x *Inbox) Close() error {
	x.once.Do(func() { close(x.closed) })
	return nil
}
