// Package dashboard provides the output summary row: OBS stream and
// recording state plus the live audience on each platform.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/theme"
)

// Model holds the dashboard state. Nil pointers mean the snapshot is
// absent.
type Model struct {
	Width   int
	OBS     *client.OBSStatus
	Twitch  *client.TwitchStreamStats
	YouTube *client.YouTubeStreamStats
}

// New creates a dashboard model.
func New() Model {
	return Model{}
}

// View renders the summary row.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	statStyle := lipgloss.NewStyle().Padding(0, 1)
	stats := []string{
		statStyle.Render(m.streamCell()),
		statStyle.Render(m.recordCell()),
		statStyle.Foreground(theme.ColorTwitch).Render(m.twitchCell()),
		statStyle.Foreground(theme.ColorYouTube).Render(m.youtubeCell()),
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) streamCell() string {
	s := (*client.StreamStatus)(nil)
	if m.OBS != nil {
		s = m.OBS.Streaming
	}
	switch {
	case s == nil:
		return theme.StyleDimmed.Render("Stream: --")
	case s.Reconnecting:
		return lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("Stream: RECONNECTING")
	case s.Active:
		return lipgloss.NewStyle().Foreground(theme.ColorLive).Bold(true).Render(
			fmt.Sprintf("● LIVE %s  %s", formatDuration(s.Duration), formatBytes(s.Bytes)))
	default:
		return lipgloss.NewStyle().Foreground(theme.ColorOffline).Render("Stream: off")
	}
}

func (m Model) recordCell() string {
	r := (*client.RecordingStatus)(nil)
	if m.OBS != nil {
		r = m.OBS.Recording
	}
	switch {
	case r == nil:
		return theme.StyleDimmed.Render("Rec: --")
	case r.Active && r.Paused:
		return lipgloss.NewStyle().Foreground(theme.ColorPaused).Render(
			"❚❚ PAUSED " + formatDuration(r.Duration))
	case r.Active:
		return lipgloss.NewStyle().Foreground(theme.ColorRecording).Render(
			"● REC " + formatDuration(r.Duration))
	default:
		return lipgloss.NewStyle().Foreground(theme.ColorOffline).Render("Rec: off")
	}
}

func (m Model) twitchCell() string {
	t := m.Twitch
	if t == nil {
		return "Twitch: --"
	}
	state := "offline"
	if t.IsLive {
		state = formatCount(t.ViewerCount) + " watching"
	}
	return fmt.Sprintf("Twitch: %s  %s followers", state, formatCount(t.FollowerCount))
}

func (m Model) youtubeCell() string {
	y := m.YouTube
	if y == nil {
		return "YouTube: --"
	}
	state := "offline"
	if y.IsLive {
		state = formatCount(y.ViewerCount) + " watching"
	}
	return fmt.Sprintf("YouTube: %s  %s subs", state, formatCount(y.SubscriberCount))
}

// formatCount formats large numbers with K/M suffixes.
func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// formatDuration renders a millisecond duration as h:mm:ss.
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	ss := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, mm, ss)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
