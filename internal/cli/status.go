package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/tui/styles"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback status",
	Long: `Shows the playback status of every configured device, or of the device
named with --device, along with who controls playback and which controls
are available.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m := newManager()

	var ids []string
	if deviceFlag != "" {
		id, err := m.Resolve(deviceFlag)
		if err != nil {
			return err
		}
		ids = []string{id}
	}

	res := m.Refresh(ctx, ids...)
	for _, err := range res.Errors {
		log.Debug("refresh failed", zap.Error(err))
		if Verbose() {
			_, _ = mutedColor.Fprintf(os.Stderr, "%v\n", err)
		}
	}

	if JSONOutput() {
		return writeJSON(os.Stdout, res.Data)
	}

	if len(res.Data) == 0 {
		fmt.Println("No devices configured")
		return nil
	}
	for i, s := range res.Data {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(renderStatus(s))
	}
	return nil
}

func renderStatus(s core.DeviceState) string {
	var b strings.Builder

	header := styles.Title.Render(strings.ToUpper(s.Name))
	switch {
	case s.Forwarded:
		header += styles.Dim.Render(" (following " + s.MasterID + ")")
	case s.Role == core.RoleMaster:
		header += styles.Dim.Render(" (group master)")
	}
	b.WriteString(header + "\n")

	switch s.Sync {
	case core.SyncUninitialized:
		b.WriteString("  " + styles.Paused.Render("Not reachable"))
		return b.String()
	case core.SyncStale:
		b.WriteString("  " + styles.Paused.Render("Stale: last heard "+humanize.Time(s.UpdatedAt)) + "\n")
	}

	if s.Track.IsEmpty() {
		b.WriteString("  " + styles.Muted.Render("No track playing") + "\n")
	} else {
		fmt.Fprintf(&b, "  %s %s\n", styles.StatusIcon(s.IsPlaying()), s.Track.Title)
		meta := s.Track.Artist
		if s.Track.Album != "" {
			meta += " · " + s.Track.Album
		}
		fmt.Fprintf(&b, "    %s\n", styles.Subtitle.Render(meta))
		if s.Track.Duration > 0 {
			fmt.Fprintf(&b, "    %s %s / %s\n",
				styles.ProgressBar(s.ProgressPercent(), 30),
				FormatDuration(s.Position),
				FormatDuration(s.Track.Duration))
		}
	}

	fmt.Fprintf(&b, "    %s %s  %s %s\n",
		styles.Label.Render("source"), s.Source.Label(),
		styles.Label.Render("control"), s.Authority.Label())
	fmt.Fprintf(&b, "    %s\n", renderCapabilities(s))

	vol := fmt.Sprintf("🔊 %d%%", s.Volume)
	if s.Muted {
		vol = "🔇 muted"
	}
	updated := ""
	if s.Sync == core.SyncSynced {
		updated = "  updated " + humanize.Time(s.UpdatedAt)
	}
	b.WriteString("    " + styles.Muted.Render(vol+updated))
	return b.String()
}

// renderCapabilities lists every control, dimming those that are unavailable.
func renderCapabilities(s core.DeviceState) string {
	c := s.Capabilities
	items := []struct {
		label string
		ok    bool
	}{
		{"play/pause", c.Playback},
		{"skip", c.Skip},
		{"seek", c.Seek},
		{"shuffle " + onOff(s.Shuffle), c.Shuffle},
		{"repeat " + string(s.Repeat), c.Repeat},
	}
	if c.QueueVisible && s.QueueCount > 0 {
		items = append(items, struct {
			label string
			ok    bool
		}{fmt.Sprintf("track %d of %d", s.QueuePosition, s.QueueCount), true})
	}

	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = styles.Capability(it.label, it.ok)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  "))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
