package downloader

import (
	"context"
	"sync"
)

// Semaphore that allows dynamic resizing.
//
// It uses a sync.Cond to allow resizing, so it is slower than a channel based semaphore
// with fixed capacity. That doesn't matter for coarse resource control like parallel downloads.
type Semaphore struct {
	cond              sync.Cond
	capacity, current int
}

// NewSemaphore returns a Semaphore that allows at most capacity simultaneous acquisitions.
// If capacity <= 0, there is no limit on acquisitions.
func NewSemaphore(capacity int) *Semaphore {
	return &Semaphore{
		cond:     sync.Cond{L: &sync.Mutex{}},
		capacity: capacity,
	}
}

// Acquire resource observing current semaphore capacity.
// It must be matched by exactly one call to Semaphore.Release.
func (s *Semaphore) Acquire() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for s.capacity > 0 && s.current >= s.capacity {
		s.cond.Wait()
	}
	s.current++
}

// AcquireContext is like Acquire, but gives up when ctx is done, returning ctx.Err().
// On success it must be matched by exactly one call to Semaphore.Release.
func (s *Semaphore) AcquireContext(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.cond.L.Lock()
		defer s.cond.L.Unlock()
		s.cond.Broadcast()
	})
	defer stop()

	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			// Pass on a Release signal this waiter may have consumed.
			s.cond.Signal()
			return err
		}
		if s.capacity <= 0 || s.current < s.capacity {
			break
		}
		s.cond.Wait()
	}
	s.current++
	return nil
}

// Release resource previously allocated with Semaphore.Acquire or Semaphore.AcquireContext.
func (s *Semaphore) Release() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.current--
	s.cond.Signal()
}

// Resize number of available resources in the Semaphore.
//
// Growing the capacity wakes up all waiting Semaphore.Acquire calls, so queue order may be lost.
// Shrinking it has no effect on current acquisitions.
func (s *Semaphore) Resize(newCapacity int) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	if newCapacity == s.capacity {
		return
	}
	s.capacity = newCapacity
	s.cond.Broadcast()
}
