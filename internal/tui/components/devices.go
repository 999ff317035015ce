package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/tui/styles"
)

// Devices displays the configured devices
type Devices struct {
	selected int
}

// NewDevices creates a new Devices component
func NewDevices() *Devices {
	return &Devices{selected: 0}
}

// SelectNext selects the next device, wrapping around
func (d *Devices) SelectNext(count int) {
	if count == 0 {
		return
	}
	d.selected = (d.selected + 1) % count
}

// SelectPrev selects the previous device, wrapping around
func (d *Devices) SelectPrev(count int) {
	if count == 0 {
		return
	}
	d.selected = (d.selected + count - 1) % count
}

// Selected returns the selected device index
func (d *Devices) Selected() int {
	return d.selected
}

// Render renders the devices panel
func (d *Devices) Render(states []core.DeviceState, width, height int, focused bool) string {
	title := styles.PanelTitle("Devices", focused)

	var content string
	if len(states) == 0 {
		content = styles.Muted.Render("No devices configured")
	} else {
		content = d.renderDevices(states, height-4)
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

func (d *Devices) renderDevices(states []core.DeviceState, maxLines int) string {
	if d.selected >= len(states) {
		d.selected = len(states) - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}

	lines := make([]string, 0, len(states))
	for i, s := range states {
		selector := "  "
		name := s.Name
		if i == d.selected {
			selector = "▸ "
			name = styles.Highlight.Render(name)
		}

		detail := ""
		switch {
		case s.Role == core.RoleSlave && s.MasterID != "":
			detail = " → " + s.MasterID
		case s.Role == core.RoleMaster:
			detail = " ⇉ group"
		case s.Sync == core.SyncSynced && s.IsPlaying():
			detail = " ▶"
		}

		lines = append(lines, fmt.Sprintf("%s%s %s%s", selector, styles.SyncIcon(s.Sync), name, styles.Dim.Render(detail)))
		if len(lines) >= maxLines {
			break
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
