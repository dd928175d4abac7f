// Package meta is the stream info editor: title plus one platform field,
// sent to the portal as a Twitch or YouTube stream update.
package meta

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/theme"
)

// Platform selects which stream the editor updates.
type Platform int

const (
	Twitch Platform = iota
	YouTube
)

func (p Platform) String() string {
	if p == YouTube {
		return "YouTube"
	}
	return "Twitch"
}

const (
	fieldTitle = iota
	fieldExtra
	fieldCount
)

// Twitch titles are capped at 140 characters, YouTube at 100.
var titleLimit = map[Platform]int{Twitch: 140, YouTube: 100}

type Model struct {
	platform Platform
	inputs   [fieldCount]textinput.Model
	focus    int
	Width    int
}

func New() Model {
	var m Model
	for i := range m.inputs {
		m.inputs[i] = textinput.New()
		m.inputs[i].Prompt = ""
	}
	m.inputs[fieldExtra].CharLimit = 5000
	return m
}

// Open prepares the editor for p, prefilled with the current values, and
// focuses the title.
func (m *Model) Open(p Platform, title, extra string) {
	m.platform = p
	m.inputs[fieldTitle].CharLimit = titleLimit[p]
	m.inputs[fieldTitle].Placeholder = "stream title"
	if p == YouTube {
		m.inputs[fieldExtra].Placeholder = "description"
	} else {
		m.inputs[fieldExtra].Placeholder = "category, e.g. Just Chatting"
	}
	m.inputs[fieldTitle].SetValue(title)
	m.inputs[fieldExtra].SetValue(extra)
	m.setFocus(fieldTitle)
}

func (m Model) Platform() Platform { return m.platform }

// NextField moves focus down, wrapping to the title.
func (m *Model) NextField() {
	m.setFocus((m.focus + 1) % fieldCount)
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// Update forwards key input to the focused field.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// Title returns the trimmed title. Empty means unchanged.
func (m Model) Title() string { return strings.TrimSpace(m.inputs[fieldTitle].Value()) }

// Extra returns the trimmed category or description.
func (m Model) Extra() string { return strings.TrimSpace(m.inputs[fieldExtra].Value()) }

// Empty reports whether submitting would change nothing.
func (m Model) Empty() bool { return m.Title() == "" && m.Extra() == "" }

func (m Model) TwitchRequest() client.UpdateTwitchStreamRequest {
	return client.UpdateTwitchStreamRequest{Title: m.Title(), GameName: m.Extra()}
}

func (m Model) YouTubeRequest() client.UpdateYouTubeStreamRequest {
	return client.UpdateYouTubeStreamRequest{Title: m.Title(), Description: m.Extra()}
}

func (m Model) View() string {
	width := max(m.Width, 40)
	inner := width - 4
	accent := theme.ServiceColor(m.platform.String())

	labels := [fieldCount]string{"Title", "Category"}
	if m.platform == YouTube {
		labels[fieldExtra] = "Description"
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(accent).Render(m.platform.String() + " stream info"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		label := theme.StyleDimmed.Render(labels[i])
		if i == m.focus {
			label = theme.StyleSelected.Render("> " + labels[i])
		}
		in := m.inputs[i]
		in.Width = max(inner-2, 10)
		b.WriteString(label + "\n  " + in.View() + "\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.StyleDimmed.Render("tab:next field  enter:save  esc:cancel"))

	return theme.Panel(width, accent).Render(b.String())
}
