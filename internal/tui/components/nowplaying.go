package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/tui/styles"
)

// NowPlaying displays the current track of the selected device
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(state *core.DeviceState, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	switch {
	case state == nil:
		content = styles.Muted.Render("No device selected")
	case state.Sync == core.SyncUninitialized:
		content = styles.Muted.Render("Waiting for " + state.Name + "...")
	case state.Track.IsEmpty():
		content = lipgloss.JoinVertical(lipgloss.Left,
			styles.Muted.Render("No track playing"),
			"",
			n.renderSource(state))
	default:
		content = n.renderTrack(state, width-4)
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

func (n *NowPlaying) renderTrack(state *core.DeviceState, width int) string {
	track := state.Track

	icon := styles.StatusIcon(state.IsPlaying())
	title := styles.Title.Width(width - 4).Render(track.Title)
	artist := styles.Subtitle.Render(track.Artist)
	album := styles.Dim.Render(track.Album)

	// Progress bar
	progressWidth := width - 14 // Account for times on either side
	if progressWidth < 10 {
		progressWidth = 10
	}
	progress := ""
	if track.Duration > 0 {
		progress = fmt.Sprintf("%s %s %s",
			formatDuration(state.Position),
			styles.ProgressBar(state.ProgressPercent(), progressWidth),
			formatDuration(track.Duration))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"  "+album,
		"",
		progress,
		"",
		n.renderSource(state),
	)
}

func (n *NowPlaying) renderSource(state *core.DeviceState) string {
	info := fmt.Sprintf("%s %s", styles.AuthorityIcon(state.Authority), state.Source.Label())
	if state.Muted {
		info += " 🔇"
	} else {
		info += fmt.Sprintf(" 🔊 %d%%", state.Volume)
	}
	if state.Forwarded {
		info += " (via " + state.MasterID + ")"
	}
	return styles.Muted.Render(info)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
