package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tessro/linkctl/internal/tail"
)

var (
	tailAll       bool
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow playback changes in real-time",
	Long: `Watch for state changes and print them as they happen.

Events tracked:
  - Track changes, completions, and skips
  - Pause/Resume
  - Volume changes
  - Source and control changes
  - Controls becoming available or unavailable
  - Devices going stale and coming back`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVarP(&tailAll, "all", "a", false, "watch all devices")
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	m := newManager()

	ids := m.Registry().IDs()
	if !tailAll {
		id, err := pickDevice(m, deviceFlag)
		if err != nil {
			return err
		}
		ids = []string{id}
	}

	emoji := cfg.Tail.Emoji && !tailNoEmoji
	timestamp := cfg.Tail.Timestamp || tailTimestamp
	format := cfg.Tail.Format
	if tailFormat != "" {
		format = tailFormat
	}
	formatter := tail.NewFormatter(
		tail.WithEmoji(emoji),
		tail.WithTimestamp(timestamp),
		tail.WithTemplate(format),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Subscribe before the session starts so the first merge is seen.
	var watchers []*tail.Watcher
	for _, id := range ids {
		rec := m.Registry().Get(id)
		if rec == nil {
			continue
		}
		updates, unsubscribe := rec.Subscribe()
		defer unsubscribe()
		watchers = append(watchers, tail.NewWatcher(updates, nil))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Run(ctx)
	}()

	events := make(chan tail.Event)
	var wg sync.WaitGroup
	for _, w := range watchers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			go func() {
				_ = w.Start(ctx)
			}()
			for e := range w.Events() {
				select {
				case events <- e:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(events)
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if JSONOutput() {
				_ = writeJSON(cmdOut(cmd), tailJSON(e))
				continue
			}
			fmt.Fprintln(cmdOut(cmd), formatter.Format(e))

		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func tailJSON(e tail.Event) map[string]any {
	out := map[string]any{
		"type":      e.Type.String(),
		"timestamp": e.Timestamp,
	}
	if e.Current != nil {
		out["device"] = e.Current.DeviceID
		out["state"] = e.Current
	}
	return out
}
