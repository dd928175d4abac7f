// Package obs implements the OBS panel: the scene list and the sources of
// the current scene, with a selection cursor in one of the two panes.
package obs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/reconcile"
	"github.com/workmate-live/dashboard/internal/theme"
)

// Pane is the list the cursor moves in.
type Pane int

const (
	PaneScenes Pane = iota
	PaneSources
)

// Model holds the OBS panel state.
type Model struct {
	state   reconcile.OBSState
	present bool

	// Navigation state.
	SelectedIdx int
	ActivePane  Pane

	Width int
}

// New creates an OBS panel model.
func New() Model {
	return Model{}
}

// SetState replaces the displayed snapshot. ok is false when the store is
// empty.
func (m *Model) SetState(s reconcile.OBSState, ok bool) {
	m.state, m.present = s, ok
	m.clampSelection()
}

// MoveDown advances the cursor within the active pane.
func (m *Model) MoveDown() {
	if n := m.paneLen(); n > 0 {
		m.SelectedIdx = (m.SelectedIdx + 1) % n
	}
}

// MoveUp moves the cursor back within the active pane.
func (m *Model) MoveUp() {
	if n := m.paneLen(); n > 0 {
		m.SelectedIdx = (m.SelectedIdx - 1 + n) % n
	}
}

// CyclePane switches between scenes and sources.
func (m *Model) CyclePane() {
	m.ActivePane = (m.ActivePane + 1) % 2
	m.SelectedIdx = 0
}

// SelectedScene returns the scene under the cursor when the scene pane is
// active.
func (m Model) SelectedScene() (client.Scene, bool) {
	if m.ActivePane != PaneScenes || m.SelectedIdx >= len(m.state.Scenes) {
		return client.Scene{}, false
	}
	return m.state.Scenes[m.SelectedIdx], true
}

// SelectedSource returns the source under the cursor when the source pane
// is active.
func (m Model) SelectedSource() (client.Source, bool) {
	if m.ActivePane != PaneSources || m.SelectedIdx >= len(m.state.Sources) {
		return client.Source{}, false
	}
	return m.state.Sources[m.SelectedIdx], true
}

// CurrentScene is the scene OBS reports as program output.
func (m Model) CurrentScene() string { return m.state.CurrentScene() }

// Streaming reports whether OBS is streaming, as last fetched.
func (m Model) Streaming() bool {
	return m.state.Status != nil && m.state.Status.Streaming != nil && m.state.Status.Streaming.Active
}

// Recording reports whether OBS is recording, and whether paused.
func (m Model) Recording() (active, paused bool) {
	if m.state.Status == nil || m.state.Status.Recording == nil {
		return false, false
	}
	r := m.state.Status.Recording
	return r.Active, r.Paused
}

// View renders the panel.
func (m Model) View() string {
	width := m.Width
	if width < 30 {
		width = 30
	}
	inner := width - 4

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorOBS).Render("OBS")
	if !m.present {
		body := theme.StyleDimmed.Render("waiting for OBS…")
		return theme.Panel(inner, theme.ColorBorder).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
	}
	if s := m.state.Status; s != nil && !s.Connected {
		title += lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("  disconnected")
	}

	lines := []string{title, m.paneHeader("Scenes", PaneScenes, inner)}
	if len(m.state.Scenes) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no scenes"))
	}
	if _, ok := m.state.ActiveScene(); !ok && len(m.state.Scenes) > 0 && m.CurrentScene() != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(
			"  on "+theme.Truncate(m.CurrentScene(), inner-6)+" (not listed)"))
	}
	for i, sc := range m.state.Scenes {
		selected := m.ActivePane == PaneScenes && i == m.SelectedIdx
		lines = append(lines, renderScene(sc, selected, inner))
	}

	lines = append(lines, m.paneHeader("Sources", PaneSources, inner))
	if len(m.state.Sources) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no sources"))
	}
	for i, src := range m.state.Sources {
		selected := m.ActivePane == PaneSources && i == m.SelectedIdx
		lines = append(lines, renderSource(src, selected, inner))
	}

	return theme.Panel(inner, theme.ColorOBS).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) paneHeader(label string, p Pane, width int) string {
	text := "─── " + label + " "
	if fill := width - lipgloss.Width(text); fill > 0 {
		text += strings.Repeat("─", fill)
	}
	if m.ActivePane == p {
		return theme.StyleHeader.Render(text)
	}
	return theme.StyleDimmed.Render(text)
}

func renderScene(sc client.Scene, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	glyph := "○"
	style := lipgloss.NewStyle().Foreground(theme.ColorBright)
	if sc.Active {
		glyph = lipgloss.NewStyle().Foreground(theme.ColorLive).Render("●")
		style = style.Bold(true)
	}
	if selected {
		style = theme.StyleSelected
	}
	return prefix + glyph + " " + style.Render(theme.Truncate(sc.Name, width-6))
}

func renderSource(src client.Source, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	eye := theme.StyleDimmed.Render("–")
	if src.Visible {
		eye = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("◉")
	}
	name := theme.Truncate(src.Name, width-18)
	var extra string
	if src.Muted != nil && *src.Muted {
		extra = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(" muted")
	} else if src.Volume != nil {
		extra = theme.StyleDimmed.Render(fmt.Sprintf(" %3.0f%%", *src.Volume*100))
	}
	style := lipgloss.NewStyle().Foreground(theme.ColorBright)
	if selected {
		style = theme.StyleSelected
	}
	return prefix + eye + " " + style.Render(name) + extra
}

func (m Model) paneLen() int {
	if m.ActivePane == PaneSources {
		return len(m.state.Sources)
	}
	return len(m.state.Scenes)
}

func (m *Model) clampSelection() {
	n := m.paneLen()
	if n == 0 {
		m.SelectedIdx = 0
	} else if m.SelectedIdx >= n {
		m.SelectedIdx = n - 1
	}
}
