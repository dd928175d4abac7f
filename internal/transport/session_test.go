package transport

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/clock"
	"github.com/workmate-live/dashboard/internal/fakeportal"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	frames []string
	status []bool
}

func (r *recorder) frame(b []byte) {
	r.mu.Lock()
	r.frames = append(r.frames, string(b))
	r.mu.Unlock()
}

func (r *recorder) sink(v bool) {
	r.mu.Lock()
	r.status = append(r.status, v)
	r.mu.Unlock()
}

func (r *recorder) Frames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

func (r *recorder) Status() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.status...)
}

func setup(t *testing.T, token string) (*fakeportal.Server, *clock.FakeClock, *recorder) {
	t.Helper()
	fp := fakeportal.New(token)
	require.NoError(t, fp.Start("127.0.0.1:0"))
	t.Cleanup(fp.Close)
	return fp, clock.NewFake(time.Unix(0, 0)), &recorder{}
}

func newSession(fp *fakeportal.Server, fc *clock.FakeClock, rec *recorder, token string, opts ...Option) *Session {
	opts = append([]Option{WithClock(fc), WithStatusSink(rec.sink)}, opts...)
	return NewSession(Config{URL: fp.WSURL(), Token: token}, rec.frame, opts...)
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, waitFor, tick,
		"want %s, have %s", want, s.State())
}

func TestSession_ConnectDeliversFramesInOrder(t *testing.T) {
	fp, fc, rec := setup(t, "tok")
	s := newSession(fp, fc, rec, "tok")
	defer s.Disconnect()

	s.Connect()
	waitState(t, s, StateOpen)
	require.Eventually(t, func() bool { return fp.ClientCount() == 1 }, waitFor, tick)
	assert.True(t, s.Connected())

	for i := 0; i < 10; i++ {
		fp.PushRaw([]byte{byte('0' + i)})
	}
	require.Eventually(t, func() bool { return len(rec.Frames()) == 10 }, waitFor, tick)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, rec.Frames())
	assert.Equal(t, []bool{true}, rec.Status())
}

func TestSession_ConnectIsNoopUnlessIdle(t *testing.T) {
	fp, fc, rec := setup(t, "")
	s := newSession(fp, fc, rec, "")
	defer s.Disconnect()

	s.Connect()
	s.Connect()
	waitState(t, s, StateOpen)
	s.Connect()

	require.Eventually(t, func() bool { return fp.ClientCount() == 1 }, waitFor, tick)
	assert.Equal(t, 1, fp.Hits("/ws"))
}

func TestSession_ReconnectsAfterFixedDelay(t *testing.T) {
	fp, fc, rec := setup(t, "")
	s := newSession(fp, fc, rec, "")
	defer s.Disconnect()

	s.Connect()
	waitState(t, s, StateOpen)
	require.Eventually(t, func() bool { return fp.ClientCount() == 1 }, waitFor, tick)

	fp.DropClients()
	waitState(t, s, StateRetryPending)
	assert.True(t, s.PendingRetry())
	assert.False(t, s.Connected())

	fc.Advance(DefaultReconnectDelay - time.Millisecond)
	assert.Equal(t, StateRetryPending, s.State())

	fc.Advance(time.Millisecond)
	waitState(t, s, StateOpen)
	assert.False(t, s.PendingRetry())
	assert.Equal(t, 2, fp.Hits("/ws"))
	assert.Equal(t, []bool{true, false, true}, rec.Status())
}

func TestSession_RepeatedCloseSchedulesOneRetry(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	s := NewSession(Config{URL: "ws://127.0.0.1:1/ws"}, func([]byte) {}, WithClock(fc))

	s.mu.Lock()
	s.state = StateOpen
	s.connected = true
	s.gen = 7
	s.mu.Unlock()

	s.onClosed(7, errors.New("read: connection reset"))
	s.onClosed(7, errors.New("close 1006"))
	s.onClosed(7, errors.New("eof"))

	assert.Equal(t, StateRetryPending, s.State())
	assert.Equal(t, 1, fc.Pending())
	s.mu.Lock()
	assert.Equal(t, uint64(1), s.retryID)
	s.mu.Unlock()

	s.Disconnect()
	assert.Equal(t, 0, fc.Pending())
}

func TestSession_StaleCloseIgnored(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	s := NewSession(Config{URL: "ws://127.0.0.1:1/ws"}, func([]byte) {}, WithClock(fc))

	s.mu.Lock()
	s.state = StateOpen
	s.gen = 3
	s.mu.Unlock()

	s.onClosed(2, errors.New("old socket"))
	assert.Equal(t, StateOpen, s.State())
	assert.Equal(t, 0, fc.Pending())
}

func TestSession_DisconnectCancelsPendingRetry(t *testing.T) {
	fp, fc, rec := setup(t, "")
	s := newSession(fp, fc, rec, "")

	s.Connect()
	waitState(t, s, StateOpen)
	require.Eventually(t, func() bool { return fp.ClientCount() == 1 }, waitFor, tick)
	fp.DropClients()
	waitState(t, s, StateRetryPending)

	s.Disconnect()
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.PendingRetry())

	fc.Advance(10 * DefaultReconnectDelay)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 1, fp.Hits("/ws"))
}

func TestSession_DisconnectStopsDelivery(t *testing.T) {
	fp, fc, rec := setup(t, "")
	s := newSession(fp, fc, rec, "")

	s.Connect()
	waitState(t, s, StateOpen)
	require.Eventually(t, func() bool { return fp.ClientCount() == 1 }, waitFor, tick)

	s.Disconnect()
	s.Disconnect()
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Connected())
	assert.Equal(t, []bool{true, false}, rec.Status())
	require.Eventually(t, func() bool { return fp.ClientCount() == 0 }, waitFor, tick)

	fp.PushRaw([]byte(`{"type":"ping"}`))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.Frames())
	assert.False(t, s.PendingRetry())
}

func TestSession_HandshakeUnauthorizedGoesIdle(t *testing.T) {
	fp, fc, rec := setup(t, "right")
	var authFailures atomic.Int32
	s := newSession(fp, fc, rec, "wrong", WithAuthFailure(func() { authFailures.Add(1) }))

	s.Connect()
	require.Eventually(t, func() bool { return authFailures.Load() == 1 }, waitFor, tick)
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.PendingRetry())
	assert.Empty(t, rec.Status())
}

func TestSession_DialFailureRetries(t *testing.T) {
	fp, fc, rec := setup(t, "")
	url := fp.WSURL()
	fp.Close()

	s := NewSession(Config{URL: url}, rec.frame, WithClock(fc))
	defer s.Disconnect()

	s.Connect()
	waitState(t, s, StateRetryPending)
	assert.True(t, s.PendingRetry())

	fc.Advance(DefaultReconnectDelay)
	require.Eventually(t, func() bool {
		return s.State() == StateRetryPending && s.PendingRetry()
	}, waitFor, tick)
}

func TestSession_OversizedFrameClosesAndRetries(t *testing.T) {
	fp, fc, rec := setup(t, "")
	s := newSession(fp, fc, rec, "")
	defer s.Disconnect()

	s.Connect()
	waitState(t, s, StateOpen)
	require.Eventually(t, func() bool { return fp.ClientCount() == 1 }, waitFor, tick)

	fp.PushRaw(bytes.Repeat([]byte("x"), MaxFrameSize+1))
	waitState(t, s, StateRetryPending)
	assert.Empty(t, rec.Frames())

	fc.Advance(DefaultReconnectDelay)
	waitState(t, s, StateOpen)
	require.Eventually(t, func() bool {
		return fp.Hits("/ws") == 2 && fp.ClientCount() == 1
	}, waitFor, tick)
	fp.PushRaw([]byte("small"))
	require.Eventually(t, func() bool { return len(rec.Frames()) == 1 }, waitFor, tick)
}

func TestSession_SendRoundTrip(t *testing.T) {
	fp, fc, rec := setup(t, "")
	s := newSession(fp, fc, rec, "")
	defer s.Disconnect()

	assert.ErrorIs(t, s.Send(client.Envelope{Type: client.MsgPing}), ErrNotConnected)

	s.Connect()
	waitState(t, s, StateOpen)
	require.NoError(t, s.Send(client.Envelope{Type: client.MsgPing}))

	require.Eventually(t, func() bool { return len(rec.Frames()) == 1 }, waitFor, tick)
	ev, err := client.Decode([]byte(rec.Frames()[0]))
	require.NoError(t, err)
	assert.Equal(t, client.PongEvent{}, ev)
}

func TestSession_HandlerPanicDoesNotKillSession(t *testing.T) {
	fp, fc, _ := setup(t, "")
	var got atomic.Int32
	handler := func(b []byte) {
		if string(b) == "boom" {
			panic("bad frame")
		}
		got.Add(1)
	}
	s := NewSession(Config{URL: fp.WSURL()}, handler, WithClock(fc))
	defer s.Disconnect()

	s.Connect()
	waitState(t, s, StateOpen)
	require.Eventually(t, func() bool { return fp.ClientCount() == 1 }, waitFor, tick)

	fp.PushRaw([]byte("boom"))
	fp.PushRaw([]byte("ok"))
	require.Eventually(t, func() bool { return got.Load() == 1 }, waitFor, tick)
	assert.Equal(t, StateOpen, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "retry-pending", StateRetryPending.String())
	assert.Equal(t, "state(9)", State(9).String())
}
