package process

import (
	"context"
	"sync"
)

// Slot is a single-value observable: writers overwrite, readers see only the
// latest value. A slow observer never accumulates a backlog and a fast
// producer never blocks on a consumer. Change notification works by closing
// a per-generation channel, so observers wait without polling.
type Slot[T any] struct {
	mu      sync.Mutex
	value   T
	gen     uint64
	changed chan struct{}
}

// NewSlot creates a slot holding the given initial value.
func NewSlot[T any](initial T) *Slot[T] {
	return &Slot[T]{
		value:   initial,
		changed: make(chan struct{}),
	}
}

// Set stores a new value and wakes all current waiters.
func (s *Slot[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	s.gen++
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Get returns the latest value.
func (s *Slot[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Generation returns a counter incremented on every Set. Observers can
// compare generations to detect missed updates.
func (s *Slot[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Changed returns a channel closed at the next Set. Grab the channel before
// reading the value to avoid missing an update between the two calls.
func (s *Slot[T]) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Wait blocks until the slot holds a value satisfying pred, returning that
// value. The current value is checked first.
func (s *Slot[T]) Wait(ctx context.Context, pred func(T) bool) (T, error) {
	for {
		ch := s.Changed()
		cur := s.Get()
		if pred(cur) {
			return cur, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
