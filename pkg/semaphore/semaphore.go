// Package semaphore provides a counting semaphore used to bound how many
// refresh workers run at once.
package semaphore

import (
	"context"
	"sync/atomic"

	xsemaphore "golang.org/x/sync/semaphore"
)

// Semaphore admits up to a fixed number of concurrent holders. The zero
// value is not usable; construct one with New.
type Semaphore struct {
	weighted *xsemaphore.Weighted
	capacity int64
	inFlight atomic.Int64
}

// New returns a semaphore admitting up to capacity concurrent holders.
// Capacities below one are raised to one so the caller can always make
// progress.
func New(capacity int) *Semaphore {
	if capacity < 1 {
		capacity = 1
	}

	return &Semaphore{
		weighted: xsemaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if err := s.weighted.Acquire(ctx, 1); err != nil {
		return err
	}

	s.inFlight.Add(1)

	return nil
}

// TryAcquire claims a slot without blocking and reports whether it got one.
func (s *Semaphore) TryAcquire() bool {
	if !s.weighted.TryAcquire(1) {
		return false
	}

	s.inFlight.Add(1)

	return true
}

// Release frees a slot claimed by Acquire or TryAcquire.
func (s *Semaphore) Release() {
	s.inFlight.Add(-1)
	s.weighted.Release(1)
}

// Capacity reports the configured limit.
func (s *Semaphore) Capacity() int {
	return int(s.capacity)
}

// InFlight reports how many slots are currently held.
func (s *Semaphore) InFlight() int {
	return int(s.inFlight.Load())
}
