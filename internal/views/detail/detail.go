// Package detail renders the host agent flyout overlay.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/live"
	"github.com/workmate-live/dashboard/internal/theme"
)

const (
	panelWidth = 64
	labelWidth = 14
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorAgent).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorDimmed)

	styleError = lipgloss.NewStyle().
			Foreground(theme.ColorDanger)
)

// Model holds the state for the agent overlay.
type Model struct {
	Agent      *client.AgentStatus
	LastAction *live.ActionResult
	Now        time.Time
}

// View renders the detail panel.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Host agent") + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	if m.Agent == nil {
		b.WriteString(theme.StyleDimmed.Render("No report from the agent yet.") + "\n")
	} else {
		m.renderAgent(&b, *m.Agent)
	}

	if a := m.LastAction; a != nil {
		b.WriteString("\n")
		b.WriteString(styleSectionHeader.Render("Last action") + "\n")
		result := lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("ok")
		if !a.OK() {
			result = styleError.Render(truncate(a.Err, 40))
		}
		b.WriteString(styleValue.Render(a.Action) + "  " + result + "  " +
			theme.StyleDimmed.Render(formatAge(a.At, m.now())) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[esc] close"))
	return stylePanel.Width(panelWidth).Render(b.String())
}

func (m Model) renderAgent(b *strings.Builder, a client.AgentStatus) {
	writeRow(b, "Hostname", a.Hostname)
	mode := "desktop"
	if a.Headless {
		mode = "headless"
	}
	writeRow(b, "Mode", mode)
	if !a.Timestamp.IsZero() {
		writeRow(b, "Reported", formatAge(a.Timestamp, m.now()))
	}

	b.WriteString("\n")
	writeRow(b, "OBS process", yesNo(a.OBS.Running, "running", "not running"))

	audio := a.Audio.Backend
	if audio == "" {
		audio = "none"
	}
	writeRow(b, "Audio", audio+"  "+yesNo(a.Audio.Ready, "ready", "not ready"))

	writeRow(b, "Video", fmt.Sprintf("%d device(s)", a.Video.DeviceCount))
	for _, d := range a.Video.Devices {
		b.WriteString(styleLabel.Render("") + theme.StyleDimmed.Render(truncate(d, panelWidth-labelWidth-6)) + "\n")
	}

	gpu := "none"
	if a.GPU.Present {
		gpu = strings.Join(a.GPU.Vendors, ", ")
		if gpu == "" {
			gpu = "present"
		}
	}
	writeRow(b, "GPU", gpu)
	if len(a.GPU.RenderNodes) > 0 {
		writeRow(b, "Render nodes", truncate(strings.Join(a.GPU.RenderNodes, " "), 40))
	}
}

func (m Model) now() time.Time {
	if m.Now.IsZero() {
		return time.Now()
	}
	return m.Now
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(yes)
	}
	return lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(no)
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func formatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds ago", int(d.Minutes()), int(d.Seconds())%60)
	default:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm ago", h, m)
	}
}
