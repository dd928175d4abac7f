// Package feed renders the platform panels: live stats, the Twitch alert
// list and the chat tails.
package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/theme"
)

const alertRows = 3

// Twitch holds the Twitch panel state.
type Twitch struct {
	Stats  *client.TwitchStreamStats
	Chat   []client.TwitchChatMessage // oldest first
	Alerts []client.TwitchAlert       // newest first
	Width  int
	Height int
}

// View renders the Twitch panel. Chat fills whatever height the stats and
// alerts leave.
func (m Twitch) View() string {
	inner := innerWidth(m.Width)
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorTwitch).Render("Twitch")

	lines := []string{title + "  " + twitchHeadline(m.Stats)}
	lines = append(lines, rule("Alerts", inner))
	if len(m.Alerts) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no alerts yet"))
	}
	for i, a := range m.Alerts {
		if i == alertRows {
			lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("  +%d more", len(m.Alerts)-alertRows)))
			break
		}
		lines = append(lines, renderAlert(a, inner))
	}

	lines = append(lines, rule("Chat", inner))
	rows := m.Height - len(lines) - 2
	if len(m.Chat) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  chat is quiet"))
	}
	for _, c := range tail(m.Chat, rows) {
		name := c.DisplayName
		if name == "" {
			name = c.Username
		}
		lines = append(lines, renderChat(name, badge(c.IsModerator, c.IsSubscriber), c.Message, theme.ChatColor(c.Color), inner))
	}

	return theme.Panel(inner, theme.ColorTwitch).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// YouTube holds the YouTube panel state.
type YouTube struct {
	Stats  *client.YouTubeStreamStats
	Chat   []client.YouTubeChatMessage
	Width  int
	Height int
}

// View renders the YouTube panel.
func (m YouTube) View() string {
	inner := innerWidth(m.Width)
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorYouTube).Render("YouTube")

	lines := []string{title + "  " + youtubeHeadline(m.Stats), rule("Chat", inner)}
	rows := m.Height - len(lines) - 2
	if len(m.Chat) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  chat is quiet"))
	}
	for _, c := range tail(m.Chat, rows) {
		color := theme.ColorBright
		if c.IsOwner {
			color = theme.ColorWarning
		}
		lines = append(lines, renderChat(c.AuthorName, badge(c.IsModerator, c.IsSponsor), c.Message, color, inner))
	}

	return theme.Panel(inner, theme.ColorYouTube).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func twitchHeadline(s *client.TwitchStreamStats) string {
	if s == nil {
		return theme.StyleDimmed.Render("--")
	}
	if !s.IsLive {
		return theme.StyleDimmed.Render("offline · " + s.Title)
	}
	return fmt.Sprintf("%d viewers · %s · %s", s.ViewerCount, s.GameName, s.Title)
}

func youtubeHeadline(s *client.YouTubeStreamStats) string {
	if s == nil {
		return theme.StyleDimmed.Render("--")
	}
	if !s.IsLive {
		return theme.StyleDimmed.Render("offline · " + s.Title)
	}
	return fmt.Sprintf("%d viewers · %s", s.ViewerCount, s.Title)
}

func renderAlert(a client.TwitchAlert, width int) string {
	kind := lipgloss.NewStyle().Foreground(theme.AlertColor(string(a.Type))).Width(10).Render(string(a.Type))
	var text string
	switch {
	case a.Follow != nil:
		text = a.Follow.UserName + " followed"
	case a.Subscribe != nil && a.Subscribe.IsGift:
		text = a.Subscribe.UserName + " got a gift sub"
	case a.Subscribe != nil:
		text = fmt.Sprintf("%s subscribed (tier %s)", a.Subscribe.UserName, a.Subscribe.Tier)
	case a.Raid != nil:
		text = fmt.Sprintf("%s raided with %d", a.Raid.FromUserName, a.Raid.Viewers)
	}
	ts := theme.StyleDimmed.Render(a.Timestamp.Format("15:04"))
	return "  " + ts + " " + kind + theme.Truncate(text, width-20)
}

func renderChat(name, badge, msg string, color lipgloss.Color, width int) string {
	who := lipgloss.NewStyle().Foreground(color).Bold(true).Render(theme.Truncate(name, 16))
	room := width - lipgloss.Width(who) - lipgloss.Width(badge) - 4
	return "  " + badge + who + ": " + theme.Truncate(strings.ReplaceAll(msg, "\n", " "), room)
}

func badge(mod, member bool) string {
	switch {
	case mod:
		return lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("⚔ ")
	case member:
		return lipgloss.NewStyle().Foreground(theme.ColorSubscribe).Render("★ ")
	}
	return ""
}

func rule(label string, width int) string {
	text := "─── " + label + " "
	if fill := width - lipgloss.Width(text); fill > 0 {
		text += strings.Repeat("─", fill)
	}
	return theme.StyleDimmed.Render(text)
}

func innerWidth(w int) int {
	if w < 30 {
		w = 30
	}
	return w - 4
}

// tail returns the last n items, or all when n is not positive or exceeds
// the length.
func tail[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[len(items)-n:]
}
