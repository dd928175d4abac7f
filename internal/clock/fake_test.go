package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	c := NewFake(epoch)
	fired := 0
	c.AfterFunc(3*time.Second, func() { fired++ })

	c.Advance(2 * time.Second)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.Pending())

	c.Advance(10 * time.Second)
	assert.Equal(t, 1, fired, "one-shot timer fired twice")
}

func TestFakeTimerStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop(), "second Stop should report false")
	assert.Equal(t, 0, c.Pending())

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFakeTicker(t *testing.T) {
	c := NewFake(epoch)
	tk := c.NewTicker(30 * time.Second)

	c.Advance(30 * time.Second)
	select {
	case got := <-tk.C:
		assert.Equal(t, epoch.Add(30*time.Second), got)
	default:
		t.Fatal("expected a tick")
	}

	tk.Stop()
	c.Advance(time.Minute)
	select {
	case <-tk.C:
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := NewFake(epoch)
	done := make(chan struct{})
	go func() {
		c.AfterFunc(time.Second, func() {})
		close(done)
	}()
	c.WaitForTimers(1)
	<-done
	require.Equal(t, 1, c.Pending())
	assert.Equal(t, epoch, c.Now())
}
