package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/linkctl/internal/control"
	"github.com/tessro/linkctl/internal/core"
)

var playCmd = &cobra.Command{
	Use:     "play",
	Aliases: []string{"resume"},
	Short:   "Start or resume playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd.Context(), "▶ Playing", "playing", func(ctx context.Context, f *control.Facade) error {
			return f.Play(ctx)
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd.Context(), "⏸ Paused", "paused", func(ctx context.Context, f *control.Facade) error {
			return f.Pause(ctx)
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd.Context(), "⏹ Stopped", "stopped", func(ctx context.Context, f *control.Facade) error {
			return f.Stop(ctx)
		})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd.Context(), "⏭ Skipped to next track", "skipped", func(ctx context.Context, f *control.Facade) error {
			return f.Next(ctx)
		})
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to previous track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd.Context(), "⏮ Previous track", "previous", func(ctx context.Context, f *control.Facade) error {
			return f.Prev(ctx)
		})
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Jump to a position in the current track",
	Long: `Jump to a position in the current track.

Only available when the speaker itself owns playback.

Examples:
  linkctl seek 1:30
  linkctl seek 90`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := ParsePosition(args[0])
		if err != nil {
			return err
		}
		return runControl(cmd.Context(), "⏩ Seeked to "+FormatDuration(pos), "seeked", func(ctx context.Context, f *control.Facade) error {
			return f.Seek(ctx, pos)
		})
	},
}

var shuffleCmd = &cobra.Command{
	Use:       "shuffle <on|off>",
	Short:     "Turn shuffle on or off",
	Long:      `Turn shuffle on or off. Only available for sources whose queue lives on the speaker.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		label := "off"
		if on {
			label = "on"
		}
		return runControl(cmd.Context(), "🔀 Shuffle "+label, "shuffle_"+label, func(ctx context.Context, f *control.Facade) error {
			return f.SetShuffle(ctx, on)
		})
	},
}

var repeatCmd = &cobra.Command{
	Use:       "repeat <off|one|all>",
	Short:     "Set the repeat mode",
	Long:      `Set the repeat mode. Only available for sources whose queue lives on the speaker.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"off", "one", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := core.ParseRepeatMode(args[0])
		if err != nil {
			return err
		}
		return runControl(cmd.Context(), "🔁 Repeat "+string(mode), "repeat_"+string(mode), func(ctx context.Context, f *control.Facade) error {
			return f.SetRepeat(ctx, mode)
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(shuffleCmd)
	rootCmd.AddCommand(repeatCmd)
}

func runControl(ctx context.Context, text, status string, fn func(context.Context, *control.Facade) error) error {
	_, f, err := openDevice(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, f); err != nil {
		return err
	}

	result := map[string]any{"status": status, "device": f.DeviceID()}
	if state, err := f.CurrentState(); err == nil {
		result["state"] = state
	}
	printResult(text, result)
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q (must be on or off)", s)
}
