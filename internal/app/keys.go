package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/workmate-live/dashboard/internal/views/help"
)

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Enter       key.Binding
	Tab         key.Binding
	Stream      key.Binding
	Record      key.Binding
	Pause       key.Binding
	ClearChat   key.Binding
	ClearAlerts key.Binding
	ClearYT     key.Binding
	Refresh     key.Binding
	EditTwitch  key.Binding
	EditYouTube key.Binding
	Agent       key.Binding
	Debug       key.Binding
	Help        key.Binding
	Escape      key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous scene or source"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next scene or source"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch to scene / toggle source"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "scenes ↔ sources"),
		),
		Stream: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start/stop streaming"),
		),
		Record: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "start/stop recording"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause/resume recording"),
		),
		ClearChat: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear Twitch chat"),
		),
		ClearAlerts: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "clear Twitch alerts"),
		),
		ClearYT: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "clear YouTube chat"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R", "ctrl+r"),
			key.WithHelp("R", "refresh everything now"),
		),
		EditTwitch: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit Twitch title and category"),
		),
		EditYouTube: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "edit YouTube title and description"),
		),
		Agent: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "host agent"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "debug log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Sections groups the bindings for the help overlay.
func (k KeyMap) Sections() []help.Section {
	return []help.Section{
		{Title: "OBS", Bindings: []key.Binding{k.Up, k.Down, k.Tab, k.Enter, k.Stream, k.Record, k.Pause}},
		{Title: "Feeds", Bindings: []key.Binding{k.ClearChat, k.ClearAlerts, k.ClearYT, k.Refresh}},
		{Title: "Stream info", Bindings: []key.Binding{k.EditTwitch, k.EditYouTube}},
		{Title: "Views", Bindings: []key.Binding{k.Agent, k.Debug, k.Help, k.Escape, k.Quit}},
	}
}
