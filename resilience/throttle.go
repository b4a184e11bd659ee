package resilience

import (
	"context"
	"runtime"
)

// Throttle bounds the number of concurrently in-flight HTTP attempts.
// It is intended to be constructed once per process and shared by
// every requestor instance, so the bound holds across all logical
// clients regardless of how many exist.
type Throttle struct {
	capacity int
	sem      chan struct{}
}

// NewThrottle creates a throttle with the given capacity. A capacity
// of zero or less uses the platform's processor count.
func NewThrottle(capacity int) *Throttle {
	if capacity <= 0 {
		capacity = runtime.NumCPU()
	}
	return &Throttle{
		capacity: capacity,
		sem:      make(chan struct{}, capacity),
	}
}

// Acquire blocks until a slot is available or ctx fires, in which case
// it returns ctx.Err().
func (t *Throttle) Acquire(ctx context.Context) error {
	select {
	case t.sem <- struct{}{}:
		return nil
	default:
	}

	select {
	case t.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. It never blocks and never fails; releasing
// with no slot held is a no-op.
func (t *Throttle) Release() {
	select {
	case <-t.sem:
	default:
	}
}

// Available returns the number of free slots.
func (t *Throttle) Available() int {
	return t.capacity - len(t.sem)
}

// InUse returns the number of slots currently held.
func (t *Throttle) InUse() int {
	return len(t.sem)
}

// Capacity returns the fixed slot capacity.
func (t *Throttle) Capacity() int {
	return t.capacity
}
