package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/tui/styles"
)

// Controls shows who owns playback and which controls are available
type Controls struct{}

// NewControls creates a new Controls component
func NewControls() *Controls {
	return &Controls{}
}

// Render renders the controls panel
func (c *Controls) Render(state *core.DeviceState, width, height int, focused bool) string {
	title := styles.PanelTitle("Controls", focused)

	var content string
	if state == nil || state.Sync == core.SyncUninitialized {
		content = styles.Muted.Render("No state yet")
	} else {
		content = c.renderControls(state)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (c *Controls) renderControls(state *core.DeviceState) string {
	caps := state.Capabilities

	owner := fmt.Sprintf("%s %s", styles.AuthorityIcon(state.Authority), state.Authority.Label())
	if state.Sync == core.SyncStale {
		owner = styles.Failed.Render("Not responding") + styles.Dim.Render(" (last: "+state.Authority.Label()+")")
	}

	shuffle := "off"
	if state.Shuffle {
		shuffle = "on"
	}

	lines := []string{
		styles.Label.Render("control  ") + owner,
		styles.Label.Render("source   ") + state.Source.Label(),
		"",
		row("space", "play/pause", caps.Playback),
		row("n/p", "next/prev", caps.Skip),
		row("←/→", "seek", caps.Seek),
		row("s", "shuffle "+shuffle, caps.Shuffle),
		row("r", "repeat "+string(state.Repeat), caps.Repeat),
	}

	if caps.QueueVisible && state.QueueCount > 0 {
		lines = append(lines, "", styles.Muted.Render(fmt.Sprintf("track %d of %d", state.QueuePosition, state.QueueCount)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func row(key, label string, enabled bool) string {
	return styles.Dim.Render(fmt.Sprintf("%-6s", key)) + styles.Capability(label, enabled)
}
