// Package mailbox provides a single-slot overwrite mailbox with blocking
// consume semantics.
//
// Semantics:
//   - Single-slot buffer: Publish never blocks, a new value replaces an
//     unconsumed one (the replaced value is counted as a drop)
//   - Blocking consume: Consume waits on a sync.Cond until a value is
//     available or the slot is closed
//   - Close wakes every waiter; Consume then returns ok=false
//
// Thread-safety: all methods are safe for concurrent use. Typically one
// producer and one consumer.
package mailbox

import "sync"

// Stats is a snapshot of slot counters
type Stats struct {
	Published        uint64 // Total values published
	Consumed         uint64 // Total values consumed
	Drops            uint64 // Values overwritten before consumption
	ConsecutiveDrops uint64 // Current streak of overwrites (resets on consume)
	Closed           bool
}

// Slot is a single-slot mailbox. The zero value is not usable; call New.
type Slot[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	value T
	full  bool

	published        uint64
	consumed         uint64
	drops            uint64
	consecutiveDrops uint64

	closed bool
}

// New creates an empty, open slot
func New[T any]() *Slot[T] {
	s := &Slot[T]{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Publish stores v, replacing any unconsumed value.
//
// Returns false if the slot is closed (v is discarded).
func (s *Slot[T]) Publish(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	// Previous value unconsumed (consumer slow)
	if s.full {
		s.drops++
		s.consecutiveDrops++
	}

	s.value = v
	s.full = true
	s.published++

	s.cond.Signal()
	return true
}

// Consume blocks until a value is available or the slot is closed.
//
// Returns ok=false once closed; a value published before Close is
// discarded.
func (s *Slot[T]) Consume() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.full && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		var zero T
		return zero, false
	}
	return s.takeLocked(), true
}

// TryConsume returns the pending value without blocking.
func (s *Slot[T]) TryConsume() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full || s.closed {
		var zero T
		return zero, false
	}
	return s.takeLocked(), true
}

func (s *Slot[T]) takeLocked() T {
	v := s.value
	var zero T
	s.value = zero
	s.full = false
	s.consumed++
	s.consecutiveDrops = 0
	return v
}

// Close marks the slot closed and wakes all waiters. Idempotent.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cond.Broadcast()
}

// Closed reports whether Close has been called
func (s *Slot[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats returns a snapshot of the slot counters
func (s *Slot[T]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Published:        s.published,
		Consumed:         s.consumed,
		Drops:            s.drops,
		ConsecutiveDrops: s.consecutiveDrops,
		Closed:           s.closed,
	}
}
