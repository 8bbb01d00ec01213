package transport

import (
	"io"
	"sync"
	"time"
)

// Pipe creates an in-memory link with a Stream on each end, for tests
// and loopback wiring. Writes on one end come out of the other end's
// reads, chunk boundaries preserved until a short read splits one.
func Pipe() (Stream, Stream) {
	a := newPipeEnd()
	b := newPipeEnd()
	a.peer, b.peer = b, a
	return a, b
}

type pipeEnd struct {
	recv   chan []byte
	closed chan struct{}
	once   sync.Once
	peer   *pipeEnd

	mu       sync.Mutex
	leftover []byte
	deadline time.Time
}

func newPipeEnd() *pipeEnd {
	return &pipeEnd{
		recv:   make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (p *pipeEnd) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.leftover) > 0 {
		n := copy(b, p.leftover)
		p.leftover = p.leftover[n:]
		p.mu.Unlock()
		return n, nil
	}
	deadline := p.deadline
	p.mu.Unlock()

	// drain buffered chunks before honoring close or deadline
	select {
	case chunk := <-p.recv:
		return p.take(b, chunk), nil
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
	case chunk := <-p.recv:
		return p.take(b, chunk), nil
	case <-expire:
		return 0, ErrDeadline
	case <-p.closed:
		return p.drainOrEOF(b)
	case <-p.peer.closed:
		return p.drainOrEOF(b)
	}
}

// drainOrEOF hands out chunks that landed before the close, then EOF.
func (p *pipeEnd) drainOrEOF(b []byte) (int, error) {
	select {
	case chunk := <-p.recv:
		return p.take(b, chunk), nil
	default:
		return 0, io.EOF
	}
}

func (p *pipeEnd) take(b, chunk []byte) int {
	n := copy(b, chunk)
	if n < len(chunk) {
		p.mu.Lock()
		p.leftover = append(p.leftover, chunk[n:]...)
		p.mu.Unlock()
	}
	return n
}

func (p *pipeEnd) Write(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, io.ErrClosedPipe
	case <-p.peer.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	chunk := append([]byte(nil), b...)
	select {
	case <-p.closed:
		return 0, io.ErrClosedPipe
	case <-p.peer.closed:
		return 0, io.ErrClosedPipe
	case p.peer.recv <- chunk:
		return len(b), nil
	}
}

func (p *pipeEnd) SetReadDeadline(t time.Time) error {
	p.mu.Lock()
	p.deadline = t
	p.mu.Unlock()
	return nil
}

// Close wakes blocked reads of both ends.
func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
