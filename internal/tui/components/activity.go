package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/linkctl/internal/tail"
	"github.com/tessro/linkctl/internal/tui/styles"
)

const maxActivity = 50

// Activity displays recent change events across all devices
type Activity struct {
	entries   []string
	times     []time.Time
	formatter *tail.Formatter
}

// NewActivity creates a new Activity component
func NewActivity() *Activity {
	return &Activity{formatter: tail.NewFormatter(tail.WithEmoji(true))}
}

// Add records events, newest first.
func (a *Activity) Add(events []tail.Event) {
	for _, e := range events {
		a.entries = append([]string{a.formatter.Format(e)}, a.entries...)
		a.times = append([]time.Time{e.Timestamp}, a.times...)
	}
	if len(a.entries) > maxActivity {
		a.entries = a.entries[:maxActivity]
		a.times = a.times[:maxActivity]
	}
}

// Len returns the number of recorded entries.
func (a *Activity) Len() int {
	return len(a.entries)
}

// Render renders the activity panel
func (a *Activity) Render(width, height int, focused bool) string {
	title := styles.PanelTitle("Activity", focused)

	var content string
	if len(a.entries) == 0 {
		content = styles.Muted.Render("No activity yet")
	} else {
		content = a.renderEntries(width-4, height-4)
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

func (a *Activity) renderEntries(width, maxLines int) string {
	lines := make([]string, 0, maxLines)
	for i, entry := range a.entries {
		if i >= maxLines {
			break
		}
		ago := formatTimeAgo(a.times[i])
		text := truncate(entry, width-len(ago)-1)
		padding := width - lipgloss.Width(text) - len(ago)
		if padding < 1 {
			padding = 1
		}
		lines = append(lines, fmt.Sprintf("%s%*s%s", text, padding, "", styles.Dim.Render(ago)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
