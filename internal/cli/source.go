package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/linkctl/internal/source"
	"github.com/tessro/linkctl/internal/wizard"
)

var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "List the inputs a device offers",
	Long:  `Lists the input names the device currently reports, marking the active one.`,
	RunE:  runInputs,
}

var sourceCmd = &cobra.Command{
	Use:   "source [name]",
	Short: "Switch the active input",
	Long: `Switch the device to another input, such as "Optical In" or "Bluetooth".

Names are matched against the inputs the device reports. Without a name,
an interactive picker is shown.

Examples:
  linkctl source "Optical In"
  linkctl source Bluetooth --device kitchen`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSource,
}

func init() {
	rootCmd.AddCommand(inputsCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runInputs(cmd *cobra.Command, args []string) error {
	_, f, err := openDevice(cmd.Context())
	if err != nil {
		return err
	}
	state, err := f.CurrentState()
	if err != nil {
		return err
	}
	names, err := f.Inputs()
	if err != nil {
		return err
	}

	if JSONOutput() {
		return writeJSON(os.Stdout, map[string]any{
			"device":  f.DeviceID(),
			"current": state.Source,
			"inputs":  names,
			"raw":     state.Inputs,
		})
	}

	t := NewTable("", "INPUT", "IDENTIFIER")
	for _, name := range names {
		id, _ := source.Resolve(name, state.Inputs)
		t.Row(StatusIcon(name == state.Source.DisplayName), name, id)
	}
	t.Flush()
	if Verbose() && state.Inputs != nil {
		_, _ = mutedColor.Printf("\nreported: %v\n", state.Inputs)
	}
	return nil
}

func runSource(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, f, err := openDevice(ctx)
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		if !wizard.IsTerminal() {
			return fmt.Errorf("no input name given")
		}
		names, err := f.Inputs()
		if err != nil {
			return err
		}
		state, _ := f.CurrentState()
		name, err = wizard.PickSource(names, state.Source.DisplayName)
		if err != nil {
			return err
		}
		if name == "" {
			return nil
		}
	}

	if err := f.SetSource(ctx, name); err != nil {
		return err
	}
	printResult("🔌 Switched to "+name, map[string]string{
		"status": "switched",
		"device": f.DeviceID(),
		"source": name,
	})
	return nil
}
