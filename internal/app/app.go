package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/live"
	"github.com/workmate-live/dashboard/internal/theme"
	"github.com/workmate-live/dashboard/internal/views/dashboard"
	"github.com/workmate-live/dashboard/internal/views/debug"
	"github.com/workmate-live/dashboard/internal/views/detail"
	"github.com/workmate-live/dashboard/internal/views/feed"
	"github.com/workmate-live/dashboard/internal/views/help"
	"github.com/workmate-live/dashboard/internal/views/meta"
	"github.com/workmate-live/dashboard/internal/views/obs"
	"github.com/workmate-live/dashboard/internal/views/status"
)

const actionTimeout = 15 * time.Second

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayAgent
	OverlayDebug
	OverlayHelp
	OverlayMeta
)

// Controller is what the UI drives. *live.Runtime implements it.
type Controller interface {
	Authenticated() bool
	RefreshAll(ctx context.Context) error

	SwitchScene(ctx context.Context, scene string) error
	ToggleSource(ctx context.Context, scene, source string, visible bool) error
	StartStreaming(ctx context.Context) error
	StopStreaming(ctx context.Context) error
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	PauseRecording(ctx context.Context) error
	ResumeRecording(ctx context.Context) error
	UpdateTwitchStream(ctx context.Context, req client.UpdateTwitchStreamRequest) error
	UpdateYouTubeStream(ctx context.Context, req client.UpdateYouTubeStreamRequest) error

	ClearTwitchChat()
	ClearTwitchAlerts()
	ClearYouTubeChat()
}

// changedMsg is sent after the stores changed.
type changedMsg struct{ domains []live.Domain }

// actionDoneMsg reports a finished user action.
type actionDoneMsg struct {
	action string
	err    error
}

// Model is the root Bubble Tea model.
type Model struct {
	ctl    Controller
	state  *live.State
	sink   *debug.Sink
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	overlay Overlay

	// Sub-views.
	statusBar status.Model
	dashboard dashboard.Model
	obs       obs.Model
	twitch    feed.Twitch
	youtube   feed.YouTube
	agent     detail.Model
	debug     debug.Model
	help      help.Model
	meta      meta.Model

	lastAction *live.ActionResult
}

// New creates the root model. sink may be nil.
func New(ctl Controller, state *live.State, sink *debug.Sink) Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys := DefaultKeyMap()
	m := Model{
		ctl:       ctl,
		state:     state,
		sink:      sink,
		ctx:       ctx,
		cancel:    cancel,
		keys:      keys,
		statusBar: status.New(),
		dashboard: dashboard.New(),
		obs:       obs.New(),
		debug:     debug.New(),
		meta:      meta.New(),
		help:      help.New(help.Markdown("live-dash keys", keys.Sections()), "dark"),
	}
	m.pull()
	return m
}

// Init starts listening for store changes.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) waitForChange() tea.Cmd {
	changes, state := m.state.Changes(), m.state
	return func() tea.Msg {
		<-changes
		return changedMsg{domains: state.Drain()}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if err := m.help.SetSize(msg.Width, msg.Height); err != nil {
			m.debug.Add("err", err.Error())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case changedMsg:
		for _, d := range msg.domains {
			switch d {
			case live.DomainTwitchChat, live.DomainYouTubeChat:
			default:
				m.debug.Add("sync", string(d))
			}
		}
		m.pull()
		return m, m.waitForChange()

	case actionDoneMsg:
		if msg.err != nil {
			m.debug.Add("err", fmt.Sprintf("%s: %v", msg.action, msg.err))
		} else {
			m.debug.Add("act", msg.action)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && (m.overlay == OverlayNone || msg.String() == "ctrl+c") {
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case m.overlay == OverlayMeta:
			return m.handleMetaKey(msg)
		case m.overlay == OverlayHelp:
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.obs.MoveDown()

	case key.Matches(msg, m.keys.Up):
		m.obs.MoveUp()

	case key.Matches(msg, m.keys.Tab):
		m.obs.CyclePane()

	case key.Matches(msg, m.keys.Enter):
		if sc, ok := m.obs.SelectedScene(); ok {
			return m, m.act(live.ActionSwitchScene, func(ctx context.Context) error {
				return m.ctl.SwitchScene(ctx, sc.Name)
			})
		}
		if src, ok := m.obs.SelectedSource(); ok {
			scene := m.obs.CurrentScene()
			return m, m.act(live.ActionToggleSource, func(ctx context.Context) error {
				return m.ctl.ToggleSource(ctx, scene, src.Name, !src.Visible)
			})
		}

	case key.Matches(msg, m.keys.Stream):
		if m.obs.Streaming() {
			return m, m.act(live.ActionStopStreaming, m.ctl.StopStreaming)
		}
		return m, m.act(live.ActionStartStreaming, m.ctl.StartStreaming)

	case key.Matches(msg, m.keys.Record):
		if active, _ := m.obs.Recording(); active {
			return m, m.act(live.ActionStopRecording, m.ctl.StopRecording)
		}
		return m, m.act(live.ActionStartRecording, m.ctl.StartRecording)

	case key.Matches(msg, m.keys.Pause):
		switch active, paused := m.obs.Recording(); {
		case active && paused:
			return m, m.act(live.ActionResumeRecording, m.ctl.ResumeRecording)
		case active:
			return m, m.act(live.ActionPauseRecording, m.ctl.PauseRecording)
		}

	case key.Matches(msg, m.keys.ClearChat):
		m.ctl.ClearTwitchChat()

	case key.Matches(msg, m.keys.ClearAlerts):
		m.ctl.ClearTwitchAlerts()

	case key.Matches(msg, m.keys.ClearYT):
		m.ctl.ClearYouTubeChat()

	case key.Matches(msg, m.keys.Refresh):
		m.debug.Add("sync", "refresh requested")
		return m, m.act(live.ActionRefresh, m.ctl.RefreshAll)

	case key.Matches(msg, m.keys.EditTwitch):
		var title, category string
		if s := m.dashboard.Twitch; s != nil {
			title, category = s.Title, s.GameName
		}
		m.meta.Open(meta.Twitch, title, category)
		m.overlay = OverlayMeta

	case key.Matches(msg, m.keys.EditYouTube):
		var title, description string
		if s := m.dashboard.YouTube; s != nil {
			title, description = s.Title, s.Description
		}
		m.meta.Open(meta.YouTube, title, description)
		m.overlay = OverlayMeta

	case key.Matches(msg, m.keys.Agent):
		m.overlay = OverlayAgent

	case key.Matches(msg, m.keys.Debug):
		m.pullLogs()
		m.overlay = OverlayDebug

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
	}

	return m, nil
}

// handleMetaKey edits the stream info form. Enter submits non-empty
// fields; esc is handled by the caller.
func (m Model) handleMetaKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.meta.NextField()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		m.overlay = OverlayNone
		if m.meta.Empty() {
			return m, nil
		}
		if m.meta.Platform() == meta.YouTube {
			req := m.meta.YouTubeRequest()
			return m, m.act(live.ActionUpdateYouTubeStream, func(ctx context.Context) error {
				return m.ctl.UpdateYouTubeStream(ctx, req)
			})
		}
		req := m.meta.TwitchRequest()
		return m, m.act(live.ActionUpdateTwitchStream, func(ctx context.Context) error {
			return m.ctl.UpdateTwitchStream(ctx, req)
		})
	}

	var cmd tea.Cmd
	m.meta, cmd = m.meta.Update(msg)
	return m, cmd
}

// act runs a portal action off the UI goroutine.
func (m Model) act(name string, fn func(context.Context) error) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, actionTimeout)
		defer cancel()
		return actionDoneMsg{action: name, err: fn(ctx)}
	}
}

// pull copies the stores into the sub-views.
func (m *Model) pull() {
	st := m.state

	m.statusBar.LoggedIn = m.ctl != nil && m.ctl.Authenticated()
	m.statusBar.Services = st.Connectivity()

	o, ok := st.OBS.Get()
	m.obs.SetState(o, ok)
	m.dashboard.OBS = o.Status

	ts, ok := st.TwitchStats.Get()
	m.dashboard.Twitch = ptr(ts, ok)
	ys, ok := st.YouTubeStats.Get()
	m.dashboard.YouTube = ptr(ys, ok)
	m.twitch.Stats = m.dashboard.Twitch
	m.twitch.Chat = st.TwitchChat.Items()
	m.twitch.Alerts = st.TwitchAlerts.Items()
	m.youtube.Stats = m.dashboard.YouTube
	m.youtube.Chat = st.YouTubeChat.Items()

	agent, ok := st.Agent.Get()
	m.agent.Agent = ptr(agent, ok)
	action, ok := st.Actions.Get()
	m.lastAction = ptr(action, ok)
	m.agent.LastAction = m.lastAction

	m.pullLogs()
}

func (m *Model) pullLogs() {
	if m.sink == nil {
		return
	}
	for _, e := range m.sink.Drain() {
		m.debug.Append(e)
	}
}

func (m *Model) layout() {
	m.statusBar.Width = m.width
	m.dashboard.Width = m.width
	left := max(m.width/3, 30)
	m.obs.Width = left
	right := max(m.width-left, 30)
	m.twitch.Width = right
	m.youtube.Width = right
	body := m.height - 3 - 3 - 2
	m.twitch.Height = max(body/2+body%2, 6)
	m.youtube.Height = max(body/2, 5)
	m.meta.Width = min(m.width, 80)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{m.statusBar.View(), m.dashboard.View()}
	if banner := m.banner(); banner != "" {
		sections = append(sections, banner)
	}

	switch m.overlay {
	case OverlayAgent:
		sections = append(sections, m.agent.View())
	case OverlayDebug:
		sections = append(sections, m.debug.View(m.width, m.height-8))
	case OverlayHelp:
		sections = append(sections, m.help.View())
	case OverlayMeta:
		sections = append(sections, m.meta.View())
	default:
		right := lipgloss.JoinVertical(lipgloss.Left, m.twitch.View(), m.youtube.View())
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, m.obs.View(), right))
	}

	sections = append(sections, m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) banner() string {
	switch {
	case m.ctl == nil || !m.ctl.Authenticated():
		return lipgloss.NewStyle().Foreground(theme.ColorDanger).Bold(true).
			Render("  LOGGED OUT  the portal rejected the token or no login was made")
	case !m.state.Linked():
		return lipgloss.NewStyle().Foreground(theme.ColorWarning).Bold(true).
			Render("  DISCONNECTED  Reconnecting to the live feed…")
	}
	return ""
}

func (m Model) footer() string {
	keys := theme.StyleDimmed.Render("  j/k:select  tab:pane  enter:apply  s:stream  r:rec  p:pause  e/E:stream info  i:agent  d:debug  ?:help  q:quit")
	a := m.lastAction
	if a == nil {
		return keys
	}
	var result string
	if a.OK() {
		result = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("✓ " + a.Action)
	} else {
		result = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("✗ " + a.Action + ": " + firstLine(a.Err))
	}
	return keys + "  " + result
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func ptr[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}
