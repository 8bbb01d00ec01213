package link

import (
	"sync"

	"github.com/featherforge/arcos.go/pkg/wire"
)

// Stats counts traffic and trouble on one session. Safe for concurrent
// use.
type Stats struct {
	mu      sync.Mutex
	wire    wire.StatsPayload
	dropped uint32
}

// Snapshot returns a copy of the wire counter block.
func (s *Stats) Snapshot() wire.StatsPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wire
}

// FramesDropped returns the count of abandoned partial frames.
func (s *Stats) FramesDropped() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Stats) addTxBytes(n int) {
	s.mu.Lock()
	s.wire.TxBytes += uint32(n)
	s.mu.Unlock()
}

func (s *Stats) addRxBytes(n int) {
	s.mu.Lock()
	s.wire.RxBytes += uint32(n)
	s.mu.Unlock()
}

func (s *Stats) countTxFrame() {
	s.mu.Lock()
	s.wire.TxFrames++
	s.mu.Unlock()
}

func (s *Stats) countRxFrame() {
	s.mu.Lock()
	s.wire.RxFrames++
	s.mu.Unlock()
}

func (s *Stats) countTxFragment() {
	s.mu.Lock()
	s.wire.TxFragments++
	s.mu.Unlock()
}

func (s *Stats) countRxFragment() {
	s.mu.Lock()
	s.wire.RxFragments++
	s.mu.Unlock()
}

func (s *Stats) countChecksumError() {
	s.mu.Lock()
	s.wire.ChecksumErrors++
	s.mu.Unlock()
}

func (s *Stats) addSyncErrors(n int) {
	s.mu.Lock()
	s.wire.SyncErrors += uint32(n)
	s.mu.Unlock()
}

func (s *Stats) countTimeout() {
	s.mu.Lock()
	s.wire.TimeoutErrors++
	s.mu.Unlock()
}

func (s *Stats) countRetry() {
	s.mu.Lock()
	s.wire.Retries++
	s.mu.Unlock()
}

func (s *Stats) countRetrySuccess() {
	s.mu.Lock()
	s.wire.RetrySuccess++
	s.mu.Unlock()
}

func (s *Stats) setRTT(us uint32) {
	s.mu.Lock()
	s.wire.LastRTTUS = us
	s.mu.Unlock()
}

func (s *Stats) countDroppedFrame() {
	s.mu.Lock()
	s.dropped++
	s.mu.Unlock()
}
