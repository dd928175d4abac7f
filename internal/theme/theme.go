// Package theme provides the Lip Gloss color palette and reusable styles
// for the live dashboard. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Service colors.
var (
	ColorAgent   = lipgloss.Color("#06b6d4")
	ColorOBS     = lipgloss.Color("#a855f7")
	ColorTwitch  = lipgloss.Color("#9146ff")
	ColorYouTube = lipgloss.Color("#ef4444")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// Output state colors.
var (
	ColorLive      = lipgloss.Color("#dc2626")
	ColorRecording = lipgloss.Color("#f97316")
	ColorPaused    = lipgloss.Color("#d97706")
	ColorOffline   = lipgloss.Color("#4b5563")
)

// Alert colors.
var (
	ColorFollow    = lipgloss.Color("#22c55e")
	ColorSubscribe = lipgloss.Color("#f59e0b")
	ColorRaid      = lipgloss.Color("#e11d48")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorAccent  = lipgloss.Color("#2563eb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// ServiceColor returns the color for a connectivity label.
func ServiceColor(service string) lipgloss.Color {
	switch service {
	case "Agent":
		return ColorAgent
	case "OBS":
		return ColorOBS
	case "Twitch":
		return ColorTwitch
	case "YouTube":
		return ColorYouTube
	default:
		return ColorDefault
	}
}

// AlertColor returns the color for a Twitch alert type.
func AlertColor(kind string) lipgloss.Color {
	switch kind {
	case "follow":
		return ColorFollow
	case "subscribe":
		return ColorSubscribe
	case "raid":
		return ColorRaid
	default:
		return ColorDefault
	}
}

// ChatColor returns the user's chat color, or the default when the portal
// sent none.
func ChatColor(hex string) lipgloss.Color {
	if len(hex) == 7 && hex[0] == '#' {
		return lipgloss.Color(hex)
	}
	return ColorBright
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)

// Panel returns the bordered box every dashboard panel is drawn in.
func Panel(width int, accent lipgloss.Color) lipgloss.Style {
	return StyleBorder.
		Width(width).
		Padding(0, 1).
		BorderForeground(accent)
}

// Dot returns a filled or hollow status dot in the healthy or danger color.
func Dot(ok bool) string {
	if ok {
		return lipgloss.NewStyle().Foreground(ColorHealthy).Render("●")
	}
	return lipgloss.NewStyle().Foreground(ColorDanger).Render("○")
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
