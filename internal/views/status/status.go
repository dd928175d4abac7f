package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/connectivity"
	"github.com/workmate-live/dashboard/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	LoggedIn bool
	Services connectivity.View
	Width    int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var head string
	switch {
	case !m.LoggedIn:
		head = lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render("○ Logged out")
	case m.Services.AllConnected():
		head = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● All systems go")
	default:
		head = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(
			fmt.Sprintf("◐ %d/%d connected", m.Services.ConnectedCount(), len(m.Services.Services)))
	}

	var parts []string
	for _, s := range m.Services.Services {
		label := lipgloss.NewStyle().Foreground(theme.ServiceColor(string(s.Service))).Render(string(s.Service))
		part := theme.Dot(s.Connected) + " " + label
		if s.Detail != "" {
			part += theme.StyleDimmed.Render(" " + theme.Truncate(s.Detail, 18))
		}
		parts = append(parts, part)
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := head
	if len(parts) > 0 {
		content += sep + strings.Join(parts, "  ")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
