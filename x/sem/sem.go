// Package sem provides the counting wait primitive the console's receive
// path blocks on. Release is safe from interrupt context: it never blocks
// and never allocates.
package sem

import (
	"context"
	"sync/atomic"
)

// Counting starts at count zero. Wake-ups are coalesced through a one-slot
// channel, so a waiter must re-check state after waking; Take does that
// internally.
type Counting struct {
	count atomic.Int32
	wake  chan struct{}
}

func NewCounting() *Counting {
	return &Counting{wake: make(chan struct{}, 1)}
}

// Count returns the currently available count.
func (s *Counting) Count() int { return int(s.count.Load()) }

// Release increments the count and wakes at most one waiter.
func (s *Counting) Release() {
	s.count.Add(1)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// TryTake takes one count if available without blocking.
func (s *Counting) TryTake() bool {
	for {
		c := s.count.Load()
		if c <= 0 {
			return false
		}
		if s.count.CompareAndSwap(c, c-1) {
			return true
		}
	}
}

// Take blocks until one count is taken or ctx is cancelled.
func (s *Counting) Take(ctx context.Context) error {
	for {
		if s.TryTake() {
			// Re-arm the wake if count remains, so a second waiter
			// is not stranded behind a coalesced notification.
			if s.count.Load() > 0 {
				select {
				case s.wake <- struct{}{}:
				default:
				}
			}
			return nil
		}
		select {
		case <-s.wake:
			// coalesced wake-up; loop and re-check
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TakeForever is Take with wait-forever semantics.
func (s *Counting) TakeForever() {
	_ = s.Take(context.Background())
}
