package help

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sections = []Section{
	{Title: "OBS", Bindings: []key.Binding{
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/stop stream")),
	}},
	{Title: "General", Bindings: []key.Binding{
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}},
}

func TestMarkdown(t *testing.T) {
	md := Markdown("Keys", sections)

	assert.Contains(t, md, "# Keys")
	assert.Contains(t, md, "## OBS")
	assert.Contains(t, md, "| `s` | start/stop stream |")
	assert.Contains(t, md, "| `q` | quit |")
}

func TestRenderedView(t *testing.T) {
	m := New(Markdown("Keys", sections), "notty")
	require.NoError(t, m.SetSize(80, 30))

	v := m.View()
	assert.Contains(t, v, "start/stop stream")
	assert.Contains(t, v, "esc:close")
}
