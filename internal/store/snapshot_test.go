package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type pair struct {
	A, B string
}

func TestSnapshotStartsAbsent(t *testing.T) {
	s := NewSnapshot[pair](nil)
	v, ok := s.Get()
	assert.False(t, ok)
	assert.Equal(t, pair{}, v)
}

func TestSnapshotReplace(t *testing.T) {
	s := NewSnapshot[pair](nil)
	s.Replace(pair{A: "1"})
	s.Replace(pair{B: "2"})

	v, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, pair{B: "2"}, v, "replace must not merge fields")
}

func TestSnapshotMergeOnAbsentReceivesZero(t *testing.T) {
	s := NewSnapshot[pair](nil)
	var seen pair
	s.Merge(func(cur pair) pair {
		seen = cur
		cur.A = "x"
		return cur
	})

	assert.Equal(t, pair{}, seen)
	v, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v.A)
}

func TestSnapshotMergeKeepsOtherFields(t *testing.T) {
	s := NewSnapshot[pair](nil)
	s.Replace(pair{A: "a", B: "b"})
	s.Merge(func(cur pair) pair {
		cur.B = "B"
		return cur
	})
	v, _ := s.Get()
	assert.Equal(t, pair{A: "a", B: "B"}, v)
}

func TestSnapshotClear(t *testing.T) {
	s := NewSnapshot[pair](nil)
	s.Replace(pair{A: "a"})
	s.Clear()

	_, ok := s.Get()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), s.Epoch())
}

func TestSnapshotEpochGuardDropsLateWrite(t *testing.T) {
	s := NewSnapshot[pair](nil)
	s.Replace(pair{A: "before"})

	// A fetch starts, then the domain is torn down before it resolves.
	epoch := s.Epoch()
	s.Clear()

	assert.False(t, s.ReplaceAt(epoch, pair{A: "late"}))
	_, ok := s.Get()
	assert.False(t, ok, "late write resurrected a cleared snapshot")

	assert.True(t, s.ReplaceAt(s.Epoch(), pair{A: "fresh"}))
	v, _ := s.Get()
	assert.Equal(t, "fresh", v.A)
}

func TestSnapshotNotifies(t *testing.T) {
	calls := 0
	s := NewSnapshot[int](func() { calls++ })
	s.Replace(1)
	s.Merge(func(v int) int { return v + 1 })
	s.MergeAt(99, func(v int) int { return v }) // rejected, no notify
	s.Clear()
	assert.Equal(t, 3, calls)
}
