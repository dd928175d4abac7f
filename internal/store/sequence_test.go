package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func reversed(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func TestAppendPolicyKeepsMostRecent(t *testing.T) {
	const capacity = 5
	s := NewSequence[int](capacity, PolicyAppend, nil)

	for i := 1; i <= 12; i++ {
		s.Append(i)
		require.LessOrEqual(t, s.Len(), capacity, "after append %d", i)

		from := i - capacity + 1
		if from < 1 {
			from = 1
		}
		require.Equal(t, seq(from, i), s.Items(), "after append %d", i)
	}
}

func TestPrependPolicyKeepsMostRecentNewestFirst(t *testing.T) {
	const capacity = 4
	s := NewSequence[int](capacity, PolicyPrepend, nil)

	for i := 1; i <= 10; i++ {
		s.Append(i)
		require.LessOrEqual(t, s.Len(), capacity, "after append %d", i)

		from := i - capacity + 1
		if from < 1 {
			from = 1
		}
		require.Equal(t, reversed(seq(from, i)), s.Items(), "after append %d", i)
	}
}

func TestChatCapacityEvictsFirstOfHundredAndOne(t *testing.T) {
	s := NewSequence[int](100, PolicyAppend, nil)
	for i := 1; i <= 101; i++ {
		s.Append(i)
	}

	items := s.Items()
	require.Len(t, items, 100)
	assert.Equal(t, 2, items[0])
	assert.Equal(t, 101, items[99])
	assert.Equal(t, seq(2, 101), items)
}

func TestClear(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		fill   int
	}{
		{"empty append", PolicyAppend, 0},
		{"partial append", PolicyAppend, 3},
		{"full prepend", PolicyPrepend, 50},
		{"overfull append", PolicyAppend, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSequence[int](50, tt.policy, nil)
			for i := 0; i < tt.fill; i++ {
				s.Append(i)
			}
			before := s.Epoch()
			s.Clear()
			assert.Empty(t, s.Items())
			assert.Equal(t, 0, s.Len())
			assert.Equal(t, before+1, s.Epoch())
		})
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := NewSequence[string](3, PolicyAppend, nil)
	s.Append("a")

	got := s.Items()
	got[0] = "mutated"

	assert.Equal(t, []string{"a"}, s.Items())
}

func TestSequenceNotifies(t *testing.T) {
	calls := 0
	s := NewSequence[int](2, PolicyAppend, func() { calls++ })
	s.Append(1)
	s.Append(2)
	s.Clear()
	assert.Equal(t, 3, calls)
}

func TestConcurrentAppendNeverExceedsCapacity(t *testing.T) {
	const capacity = 10
	s := NewSequence[int](capacity, PolicyPrepend, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	var violations int
	var vmu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if n := len(s.Items()); n > capacity {
				vmu.Lock()
				violations++
				vmu.Unlock()
			}
		}
	}()

	var writers sync.WaitGroup
	for w := 0; w < 4; w++ {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for i := 0; i < 500; i++ {
				s.Append(i)
			}
		}()
	}
	writers.Wait()
	close(stop)
	wg.Wait()

	assert.Zero(t, violations)
	assert.Equal(t, capacity, s.Len())
}

func TestNewSequenceRejectsZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewSequence[int](0, PolicyAppend, nil) })
}
