package link

import (
	"github.com/featherforge/arcos.go/pkg/wire"
)

// ScanState is where the scanner stands inside the byte stream.
type ScanState int

const (
	// StateSeeking means hunting for the sync marker.
	StateSeeking ScanState = iota
	// StateReadingHeader means the marker matched, header bytes follow.
	StateReadingHeader
	// StateReadingPayload means the header is in, payload bytes follow.
	StateReadingPayload
	// StateReadingFooter means checksum and trailer bytes follow.
	StateReadingFooter
)

// String returns the state name.
func (s ScanState) String() string {
	switch s {
	case StateReadingHeader:
		return "reading-header"
	case StateReadingPayload:
		return "reading-payload"
	case StateReadingFooter:
		return "reading-footer"
	}
	return "seeking"
}

// ScanResult is what one scanner step produced.
type ScanResult struct {
	State   ScanState
	Packet  *wire.Packet // a whole verified packet, when one completed
	Err     error        // framing or integrity trouble, stream goes on
	Skipped int          // bytes given up on during this step
}

// Scanner finds and validates packets of one format in a raw stream.
// It consumes one byte per Feed and does no I/O of its own, read
// timers are the caller's business and come back in through Timeout.
type Scanner struct {
	format  wire.Format
	sync    []byte
	state   ScanState
	matched int
	buf     []byte
	payload int
}

// NewScanner creates a Scanner for the format.
func NewScanner(format wire.Format) *Scanner {
	return &Scanner{format: format, sync: format.Sync()}
}

// Format returns the wire format scanned for.
func (s *Scanner) Format() wire.Format {
	return s.format
}

// State returns the current state.
func (s *Scanner) State() ScanState {
	return s.state
}

// Feed consumes one stream byte.
func (s *Scanner) Feed(b byte) (res ScanResult) {
	switch s.state {
	case StateSeeking:
		s.feedSeeking(b, &res)
	case StateReadingHeader:
		s.buf = append(s.buf, b)
		if len(s.buf) == s.format.HeaderLen() {
			n, err := s.format.PayloadLen(s.buf)
			if err != nil {
				s.abort(&res, err)
				break
			}
			s.payload = n
			if n == 0 {
				s.state = StateReadingFooter
			} else {
				s.state = StateReadingPayload
			}
		}
	case StateReadingPayload:
		s.buf = append(s.buf, b)
		if len(s.buf) == s.format.HeaderLen()+s.payload {
			s.state = StateReadingFooter
		}
	case StateReadingFooter:
		s.buf = append(s.buf, b)
		if len(s.buf) == s.format.HeaderLen()+s.payload+s.format.FooterLen() {
			pkt, err := wire.Decode(s.format, s.buf)
			if err != nil {
				s.abort(&res, err)
				break
			}
			s.reset()
			res.Packet = pkt
		}
	}
	res.State = s.state
	return
}

// Timeout aborts the packet in flight after the caller's read timer
// fired, classified by where the stream stalled. Mid-marker matches go
// stale silently.
func (s *Scanner) Timeout() (res ScanResult) {
	switch s.state {
	case StateReadingHeader:
		res.Err = ErrHeaderTimeout
	case StateReadingPayload:
		res.Err = ErrPayloadTimeout
	case StateReadingFooter:
		res.Err = ErrFooterTimeout
	default:
		res.Skipped = s.matched
	}
	res.Skipped += len(s.buf)
	s.reset()
	res.State = s.state
	return
}

// feedSeeking matches the sync marker byte by byte. A mismatch drops
// the partial match and re-examines the offending byte as a fresh
// first marker byte, so overlapping markers still lock on.
func (s *Scanner) feedSeeking(b byte, res *ScanResult) {
	if b == s.sync[s.matched] {
		s.matched++
		if s.matched == len(s.sync) {
			s.buf = append(s.buf[:0], s.sync...)
			s.matched = 0
			s.state = StateReadingHeader
		}
		return
	}
	res.Skipped = s.matched
	if b == s.sync[0] {
		s.matched = 1
	} else {
		s.matched = 0
		res.Skipped++
	}
}

func (s *Scanner) abort(res *ScanResult, err error) {
	res.Err = err
	res.Skipped = len(s.buf)
	s.reset()
}

func (s *Scanner) reset() {
	s.state = StateSeeking
	s.matched = 0
	s.buf = s.buf[:0]
	s.payload = 0
}
