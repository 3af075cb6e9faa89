package flume

import (
	"context"
	"sync/atomic"
)

// Semaphore is a counting semaphore for bounding concurrency.
// It is context-aware: Acquire unblocks if the context is cancelled.
//
// The join engine uses one Semaphore per join to gate inner-producer
// admission. InFlight and Peak expose the counters tests need to check
// the concurrency bound.
type Semaphore struct {
	ch       chan struct{}
	cap      int
	acquired atomic.Int64
	peak     atomic.Int64
}

// NewSemaphore creates a semaphore with the given number of permits.
// Panics if n <= 0.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		panic("flume: NewSemaphore requires n > 0")
	}
	return &Semaphore{
		ch:  make(chan struct{}, n),
		cap: n,
	}
}

// Acquire blocks until a permit is available or ctx is cancelled.
// Returns ctx.Err() on cancellation, nil on success.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		s.note()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AcquireBlocking blocks until a permit is available, ignoring any
// context. Admission into a join runs inside an uncancellable region,
// so a pending shutdown must not abort the acquire; liveness holds
// because every admitted producer releases its permit.
func (s *Semaphore) AcquireBlocking() {
	s.ch <- struct{}{}
	s.note()
}

// TryAcquire attempts to acquire a permit without blocking.
// Returns true if acquired, false otherwise.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.ch <- struct{}{}:
		s.note()
		return true
	default:
		return false
	}
}

// Release returns a permit. Panics if more permits are released than
// were acquired.
func (s *Semaphore) Release() {
	if s.acquired.Add(-1) < 0 {
		s.acquired.Add(1) // undo
		panic("flume: Semaphore.Release called without matching Acquire")
	}
	<-s.ch
}

// Available returns the number of free permits.
// The value may be stale in concurrent contexts.
func (s *Semaphore) Available() int {
	return s.cap - len(s.ch)
}

// InFlight returns the number of permits currently held.
func (s *Semaphore) InFlight() int64 {
	return s.acquired.Load()
}

// Peak returns the high-water mark of simultaneously held permits.
func (s *Semaphore) Peak() int64 {
	return s.peak.Load()
}

func (s *Semaphore) note() {
	cur := s.acquired.Add(1)
	for {
		old := s.peak.Load()
		if cur <= old || s.peak.CompareAndSwap(old, cur) {
			return
		}
	}
}
