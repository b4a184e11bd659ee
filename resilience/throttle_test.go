package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestThrottle_AllowsConcurrencyWithinCapacity(t *testing.T) {
	th := NewThrottle(3)

	var held int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := th.Acquire(context.Background()); err != nil {
				t.Errorf("expected no error, got %v", err)
				return
			}
			atomic.AddInt32(&held, 1)
			time.Sleep(10 * time.Millisecond)
			th.Release()
		}()
	}
	wg.Wait()

	if held != 3 {
		t.Errorf("expected 3 acquisitions, got %d", held)
	}
	if th.Available() != 3 {
		t.Errorf("expected all slots back, got %d available", th.Available())
	}
}

func TestThrottle_BlocksUntilRelease(t *testing.T) {
	th := NewThrottle(2)

	// Fill all slots.
	for i := 0; i < 2; i++ {
		if err := th.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	acquired := make(chan struct{})
	go func() {
		if err := th.Acquire(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("third acquire should block while capacity is exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	th.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("acquire should proceed after a release")
	}

	th.Release()
	th.Release()
	if th.Available() != 2 {
		t.Errorf("expected availability restored to 2, got %d", th.Available())
	}
}

func TestThrottle_AcquireCancellation(t *testing.T) {
	th := NewThrottle(1)

	if err := th.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- th.Acquire(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled acquire did not return")
	}

	// The cancelled acquire must not have consumed a slot.
	if th.InUse() != 1 {
		t.Errorf("expected 1 slot in use, got %d", th.InUse())
	}
}

func TestThrottle_ReleaseWithoutAcquireIsNoop(t *testing.T) {
	th := NewThrottle(2)
	th.Release()
	if th.Available() != 2 {
		t.Errorf("expected 2 available, got %d", th.Available())
	}
}

func TestThrottle_DefaultCapacity(t *testing.T) {
	th := NewThrottle(0)
	if th.Capacity() < 1 {
		t.Errorf("expected positive default capacity, got %d", th.Capacity())
	}
	if th.Available() != th.Capacity() {
		t.Errorf("expected all slots free initially")
	}
}
