// Package wizard provides interactive pickers for commands run without arguments.
package wizard

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// IsTerminal returns true if stdin and stdout are both terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// PickSource asks the user to choose one of names. current is preselected.
// An empty name with a nil error means the user cancelled.
func PickSource(names []string, current string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("the device reports no selectable inputs")
	}

	options := make([]huh.Option[string], len(names))
	for i, n := range names {
		label := n
		if n == current {
			label += " (current)"
		}
		options[i] = huh.NewOption(label, n)
	}

	selected := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select input").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}
