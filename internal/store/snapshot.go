package store

import "sync"

// Snapshot holds the latest value for one domain, or nothing. Values are
// replaced wholesale or transformed by a rule; no history is kept.
//
// Stored values are treated as immutable: rules must return new slices
// rather than editing the ones they receive, since Get hands the same
// value to concurrent readers.
type Snapshot[T any] struct {
	mu       sync.RWMutex
	value    T
	present  bool
	epoch    uint64
	onChange func()
}

// NewSnapshot returns an absent snapshot. onChange, if non-nil, is called
// after every mutation without the lock held.
func NewSnapshot[T any](onChange func()) *Snapshot[T] {
	return &Snapshot[T]{onChange: onChange}
}

// Get returns the current value and whether one is present.
func (s *Snapshot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.present
}

// Replace stores v.
func (s *Snapshot[T]) Replace(v T) {
	s.mu.Lock()
	s.value, s.present = v, true
	s.mu.Unlock()
	s.notify()
}

// Merge stores rule(current). When absent, rule receives the zero value.
// The rule runs under the write lock so readers see either the old or the
// new value, never a partial update.
func (s *Snapshot[T]) Merge(rule func(T) T) {
	s.mu.Lock()
	s.value, s.present = rule(s.value), true
	s.mu.Unlock()
	s.notify()
}

// ReplaceAt is Replace guarded by an epoch read before a fetch started.
// It reports false and discards v when the snapshot was cleared since.
func (s *Snapshot[T]) ReplaceAt(epoch uint64, v T) bool {
	return s.MergeAt(epoch, func(T) T { return v })
}

// MergeAt is Merge guarded by an epoch; see ReplaceAt.
func (s *Snapshot[T]) MergeAt(epoch uint64, rule func(T) T) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.value, s.present = rule(s.value), true
	s.mu.Unlock()
	s.notify()
	return true
}

// Clear makes the snapshot absent and advances its epoch so in-flight
// epoch-guarded writes are dropped.
func (s *Snapshot[T]) Clear() {
	var zero T
	s.mu.Lock()
	s.value, s.present = zero, false
	s.epoch++
	s.mu.Unlock()
	s.notify()
}

// Epoch counts Clear calls.
func (s *Snapshot[T]) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Snapshot[T]) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
