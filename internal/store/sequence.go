// Package store holds the in-memory containers the UI reads from: bounded
// event sequences for chat/alert feeds and latest-value snapshots for
// polled or pushed status payloads.
package store

import "sync"

// Policy decides where new items go and which end is evicted.
type Policy int

const (
	// PolicyAppend appends at the tail and evicts from the head, keeping
	// arrival order (chat feeds).
	PolicyAppend Policy = iota
	// PolicyPrepend inserts at the head and evicts from the tail, keeping
	// newest-first order (alert feeds).
	PolicyPrepend
)

// Sequence is an ordered, capacity-bounded list of T. Capacity and policy
// are fixed at construction.
type Sequence[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	policy   Policy
	epoch    uint64
	onChange func()
}

// NewSequence returns an empty sequence. capacity must be positive.
// onChange, if non-nil, is called after every mutation without the lock
// held.
func NewSequence[T any](capacity int, policy Policy, onChange func()) *Sequence[T] {
	if capacity <= 0 {
		panic("store: sequence capacity must be positive")
	}
	return &Sequence[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
		policy:   policy,
		onChange: onChange,
	}
}

// Append inserts item according to the policy and evicts in the same
// critical section, so Len never exceeds Cap.
func (s *Sequence[T]) Append(item T) {
	s.mu.Lock()
	switch s.policy {
	case PolicyPrepend:
		next := make([]T, 0, s.capacity)
		next = append(next, item)
		keep := len(s.items)
		if keep > s.capacity-1 {
			keep = s.capacity - 1
		}
		s.items = append(next, s.items[:keep]...)
	default:
		if len(s.items) == s.capacity {
			// Shift rather than reslice so the backing array stays bounded.
			copy(s.items, s.items[1:])
			s.items[len(s.items)-1] = item
		} else {
			s.items = append(s.items, item)
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Clear empties the sequence and advances its epoch.
func (s *Sequence[T]) Clear() {
	s.mu.Lock()
	s.items = make([]T, 0, s.capacity)
	s.epoch++
	s.mu.Unlock()
	s.notify()
}

// Items returns a copy of the current contents in display order.
func (s *Sequence[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Sequence[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Sequence[T]) Cap() int { return s.capacity }

func (s *Sequence[T]) Policy() Policy { return s.policy }

// Epoch counts Clear calls.
func (s *Sequence[T]) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Sequence[T]) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
