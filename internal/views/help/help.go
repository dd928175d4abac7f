// Package help renders the key binding reference as markdown through
// glamour, inside a scrollable viewport.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/theme"
)

// Section is one titled group of bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Markdown lays the sections out as markdown tables.
func Markdown(title string, sections []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n| Key | Action |\n|---|---|\n", s.Title)
		for _, kb := range s.Bindings {
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Model holds the rendered help text.
type Model struct {
	markdown string
	style    string
	vp       viewport.Model
}

// New creates a help model. style is a glamour standard style name such
// as "dark", "light" or "notty".
func New(markdown, style string) Model {
	if style == "" {
		style = "dark"
	}
	return Model{markdown: markdown, style: style, vp: viewport.New(0, 0)}
}

// SetSize re-renders the markdown wrapped to the new width.
func (m *Model) SetSize(width, height int) error {
	innerW := max(width-6, 20)
	m.vp.Width = innerW
	m.vp.Height = max(height-4, 3)

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(innerW-2),
	)
	if err != nil {
		return fmt.Errorf("help renderer: %w", err)
	}
	out, err := r.Render(m.markdown)
	if err != nil {
		return fmt.Errorf("render help: %w", err)
	}
	m.vp.SetContent(out)
	return nil
}

// Update scrolls the viewport.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// View renders the overlay.
func (m Model) View() string {
	footer := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %3.0f%%", m.vp.ScrollPercent()*100))
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.vp.View(), footer))
}
