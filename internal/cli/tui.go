package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/linkctl/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard provides a live view with:
  • Now Playing - current track, progress, source
  • Controls - who controls playback and which controls are available
  • Devices - configured speakers and their sync state
  • Activity - recent changes

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Space        Play/Pause
  s            Toggle shuffle
  r            Cycle repeat mode
  ←/→          Seek back/forward 10s
  n            Next track
  p            Previous track
  Tab          Next device`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	m := newManager()
	return tui.Run(cmd.Context(), m, cfg.TUI)
}
