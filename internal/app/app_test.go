package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/live"
	"github.com/workmate-live/dashboard/internal/reconcile"
	"github.com/workmate-live/dashboard/internal/views/debug"
)

type fakeController struct {
	mu     sync.Mutex
	authed bool
	calls  []string
	fail   error
	state  *live.State
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeController) Authenticated() bool { return f.authed }
func (f *fakeController) RefreshAll(context.Context) error {
	return f.record("refresh")
}

func (f *fakeController) SwitchScene(_ context.Context, scene string) error {
	return f.record("switch " + scene)
}

func (f *fakeController) ToggleSource(_ context.Context, scene, source string, visible bool) error {
	v := "hide"
	if visible {
		v = "show"
	}
	return f.record(v + " " + scene + "/" + source)
}

func (f *fakeController) StartStreaming(context.Context) error  { return f.record("stream start") }
func (f *fakeController) StopStreaming(context.Context) error   { return f.record("stream stop") }
func (f *fakeController) StartRecording(context.Context) error  { return f.record("rec start") }
func (f *fakeController) StopRecording(context.Context) error   { return f.record("rec stop") }
func (f *fakeController) PauseRecording(context.Context) error  { return f.record("rec pause") }
func (f *fakeController) ResumeRecording(context.Context) error { return f.record("rec resume") }
func (f *fakeController) UpdateTwitchStream(_ context.Context, req client.UpdateTwitchStreamRequest) error {
	return f.record("twitch " + req.Title + "|" + req.GameName)
}

func (f *fakeController) UpdateYouTubeStream(_ context.Context, req client.UpdateYouTubeStreamRequest) error {
	return f.record("youtube " + req.Title + "|" + req.Description)
}

func (f *fakeController) ClearTwitchChat()                      { f.state.TwitchChat.Clear() }
func (f *fakeController) ClearTwitchAlerts()                    { f.state.TwitchAlerts.Clear() }
func (f *fakeController) ClearYouTubeChat()                     { f.state.YouTubeChat.Clear() }

func newModel(t *testing.T) (Model, *fakeController, *live.State) {
	t.Helper()
	st := live.NewState(0, 0)
	ctl := &fakeController{authed: true, state: st}
	st.SetLinked(true)
	st.OBS.Replace(reconcile.OBSState{
		Status: &client.OBSStatus{Connected: true, CurrentScene: "Gameplay"},
		Scenes: []client.Scene{{Name: "Intro"}, {Name: "Gameplay", Active: true}},
		Sources: []client.Source{
			{Name: "Camera", Visible: true},
		},
	})
	m := New(ctl, st, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), ctl, st
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func run(t *testing.T, cmd tea.Cmd) actionDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	done, ok := cmd().(actionDoneMsg)
	require.True(t, ok)
	return done
}

func TestEnterSwitchesSelectedScene(t *testing.T) {
	m, ctl, _ := newModel(t)

	m, _ = press(t, m, "j")
	_, cmd := press(t, m, "enter")
	done := run(t, cmd)

	assert.Equal(t, live.ActionSwitchScene, done.action)
	assert.NoError(t, done.err)
	assert.Equal(t, []string{"switch Gameplay"}, ctl.calls)
}

func TestEnterTogglesSourceInCurrentScene(t *testing.T) {
	m, ctl, _ := newModel(t)

	m, _ = press(t, m, "tab")
	_, cmd := press(t, m, "enter")
	run(t, cmd)

	assert.Equal(t, []string{"hide Gameplay/Camera"}, ctl.calls)
}

func TestOutputKeysFollowCurrentState(t *testing.T) {
	m, ctl, st := newModel(t)

	_, cmd := press(t, m, "s")
	run(t, cmd)
	_, cmd = press(t, m, "p")
	assert.Nil(t, cmd, "pause needs an active recording")

	st.OBS.Merge(func(o reconcile.OBSState) reconcile.OBSState {
		return reconcile.WithStatus(o, client.OBSStatus{
			Connected: true, CurrentScene: "Gameplay",
			Streaming: &client.StreamStatus{Active: true},
			Recording: &client.RecordingStatus{Active: true, Paused: true},
		})
	})
	next, _ := m.Update(changedMsg{domains: st.Drain()})
	m = next.(Model)

	for _, k := range []string{"s", "r", "p"} {
		var c tea.Cmd
		_, c = press(t, m, k)
		run(t, c)
	}
	assert.Equal(t, []string{"stream start", "stream stop", "rec stop", "rec resume"}, ctl.calls)
}

func TestFailedActionIsLogged(t *testing.T) {
	m, ctl, _ := newModel(t)
	ctl.fail = errors.New("obs offline")

	_, cmd := press(t, m, "s")
	next, _ := m.Update(run(t, cmd))
	m = next.(Model)

	require.NotEmpty(t, m.debug.Entries)
	last := m.debug.Entries[len(m.debug.Entries)-1]
	assert.Equal(t, "err", last.Kind)
	assert.Contains(t, last.Message, "obs offline")
}

func TestClearKeysEmptyFeeds(t *testing.T) {
	m, _, st := newModel(t)
	st.TwitchChat.Append(client.TwitchChatMessage{Message: "x"})
	st.TwitchAlerts.Append(client.TwitchAlert{Type: client.AlertFollow})
	st.YouTubeChat.Append(client.YouTubeChatMessage{ID: "y"})

	for _, k := range []string{"c", "a", "y"} {
		m, _ = press(t, m, k)
	}

	assert.Equal(t, 0, st.TwitchChat.Len())
	assert.Equal(t, 0, st.TwitchAlerts.Len())
	assert.Equal(t, 0, st.YouTubeChat.Len())
}

func TestRefreshKeyRefreshesEverything(t *testing.T) {
	m, ctl, _ := newModel(t)
	_, cmd := press(t, m, "R")
	done := run(t, cmd)

	assert.Equal(t, live.ActionRefresh, done.action)
	assert.NoError(t, done.err)
	assert.Equal(t, []string{"refresh"}, ctl.calls)
}

func TestStreamInfoEditorSubmitsTwitchUpdate(t *testing.T) {
	m, ctl, st := newModel(t)
	st.TwitchStats.Replace(client.TwitchStreamStats{Title: "Chill coding", GameName: "Just Chatting"})
	next, _ := m.Update(changedMsg{domains: st.Drain()})
	m = next.(Model)

	m, _ = press(t, m, "e")
	require.Equal(t, OverlayMeta, m.overlay)
	assert.Contains(t, m.View(), "Twitch stream info")

	m, _ = press(t, m, " and tea")
	m, _ = press(t, m, "q")
	require.Equal(t, OverlayMeta, m.overlay, "typing q edits the title")
	m, cmd := press(t, m, "enter")
	assert.Equal(t, OverlayNone, m.overlay)

	done := run(t, cmd)
	assert.Equal(t, live.ActionUpdateTwitchStream, done.action)
	assert.Equal(t, []string{"twitch Chill coding and teaq|Just Chatting"}, ctl.calls)
}

func TestStreamInfoEditorYouTubeFailureIsLogged(t *testing.T) {
	m, ctl, _ := newModel(t)
	ctl.fail = errors.New("quota exceeded")

	m, _ = press(t, m, "E")
	m, _ = press(t, m, "New title")
	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "desc")
	m, cmd := press(t, m, "enter")

	done := run(t, cmd)
	assert.Equal(t, live.ActionUpdateYouTubeStream, done.action)
	assert.Equal(t, []string{"youtube New title|desc"}, ctl.calls)

	next, _ := m.Update(done)
	m = next.(Model)
	last := m.debug.Entries[len(m.debug.Entries)-1]
	assert.Equal(t, "err", last.Kind)
	assert.Contains(t, last.Message, "quota exceeded")
}

func TestStreamInfoEditorCancel(t *testing.T) {
	m, ctl, _ := newModel(t)

	m, _ = press(t, m, "e")
	m, _ = press(t, m, "x")
	m, cmd := press(t, m, "esc")
	assert.Nil(t, cmd)
	assert.Equal(t, OverlayNone, m.overlay)

	m, _ = press(t, m, "e")
	_, cmd = press(t, m, "enter")
	assert.Nil(t, cmd, "empty form sends nothing")
	assert.Empty(t, ctl.calls)
}

func TestChangesReachTheView(t *testing.T) {
	m, _, st := newModel(t)
	cmd := m.Init()

	st.TwitchChat.Append(client.TwitchChatMessage{Username: "ana", Message: "hello there"})
	msg := cmd()
	changed, ok := msg.(changedMsg)
	require.True(t, ok)
	assert.Contains(t, changed.domains, live.DomainTwitchChat)

	next, _ := m.Update(changed)
	v := next.(Model).View()
	assert.Contains(t, v, "hello there")
	assert.Contains(t, v, "Gameplay")
}

func TestOverlays(t *testing.T) {
	m, _, _ := newModel(t)

	m, _ = press(t, m, "i")
	assert.Equal(t, OverlayAgent, m.overlay)
	assert.Contains(t, m.View(), "Host agent")

	m, cmd := press(t, m, "q")
	assert.Nil(t, cmd, "q inside an overlay does not quit")
	m, _ = press(t, m, "esc")
	assert.Equal(t, OverlayNone, m.overlay)

	m, _ = press(t, m, "?")
	assert.Contains(t, m.View(), "streaming")
	m, _ = press(t, m, "esc")

	m, _ = press(t, m, "d")
	assert.Contains(t, m.View(), "DEBUG LOG")
}

func TestDebugDrainsLoggerSink(t *testing.T) {
	st := live.NewState(0, 0)
	sink := debug.NewSink()
	m := New(&fakeController{state: st}, st, sink)
	require.NoError(t, sink.Hook(zapEntry("transport: dial failed")))

	m, _ = press(t, m, "d")

	require.Len(t, m.debug.Entries, 1)
	assert.Equal(t, "transport: dial failed", m.debug.Entries[0].Message)
}

func TestDisconnectBanner(t *testing.T) {
	m, _, st := newModel(t)
	assert.NotContains(t, m.View(), "DISCONNECTED")

	st.SetLinked(false)
	v := m.View()
	assert.Contains(t, v, "DISCONNECTED")
	assert.Contains(t, v, "Reconnecting")
}

func TestLoggedOutBanner(t *testing.T) {
	m, ctl, _ := newModel(t)
	ctl.authed = false
	next, _ := m.Update(changedMsg{})

	assert.Contains(t, next.(Model).View(), "LOGGED OUT")
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Error(t, m.ctx.Err())
}

func zapEntry(msg string) zapcore.Entry {
	return zapcore.Entry{Time: time.Now(), Message: msg}
}
