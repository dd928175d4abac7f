package meta

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/workmate-live/dashboard/internal/client"
)

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestTwitchRequestFromFields(t *testing.T) {
	m := New()
	m.Open(Twitch, "", "")
	assert.True(t, m.Empty())

	m = typeText(m, "Late night refactor")
	m.NextField()
	m = typeText(m, "Software and Game Development")

	assert.Equal(t, client.UpdateTwitchStreamRequest{
		Title:    "Late night refactor",
		GameName: "Software and Game Development",
	}, m.TwitchRequest())
}

func TestOpenPrefillsAndFocusesTitle(t *testing.T) {
	m := New()
	m.Open(YouTube, "Old title", "Old description")
	m.NextField()
	m.Open(YouTube, "Chill coding", "")

	m = typeText(m, "!")
	assert.Equal(t, YouTube, m.Platform())
	assert.Equal(t, client.UpdateYouTubeStreamRequest{Title: "Chill coding!"}, m.YouTubeRequest())
}

func TestNextFieldWraps(t *testing.T) {
	m := New()
	m.Open(Twitch, "", "")
	m.NextField()
	m.NextField()
	m = typeText(m, "t")
	assert.Equal(t, "t", m.Title())
	assert.Equal(t, "", m.Extra())
}

func TestTitleLimitPerPlatform(t *testing.T) {
	long := make([]rune, 150)
	for i := range long {
		long[i] = 'x'
	}
	m := New()
	m.Open(YouTube, "", "")
	m = typeText(m, string(long))
	assert.Len(t, m.Title(), 100)

	m.Open(Twitch, "", "")
	m = typeText(m, string(long))
	assert.Len(t, m.Title(), 140)
}

func TestView(t *testing.T) {
	m := New()
	m.Width = 60
	m.Open(YouTube, "Chill coding", "")
	v := m.View()
	assert.Contains(t, v, "YouTube stream info")
	assert.Contains(t, v, "Description")
	assert.Contains(t, v, "Chill coding")
}
