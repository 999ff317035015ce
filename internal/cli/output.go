package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	lerrors "github.com/tessro/linkctl/internal/errors"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	hintColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	mutedColor   = color.New(color.FgHiBlack)
)

// printError writes err and its suggestion to stderr, or a JSON object when
// JSON output is requested.
func printError(err error) {
	if JSONOutput() {
		_ = json.NewEncoder(os.Stderr).Encode(map[string]string{
			"error":      err.Error(),
			"kind":       lerrors.Kind(err),
			"suggestion": lerrors.GetSuggestion(err),
		})
		return
	}

	_, _ = errorColor.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, err.Error())
	if s := lerrors.GetSuggestion(err); s != "" {
		fmt.Fprintln(os.Stderr)
		_, _ = hintColor.Fprintln(os.Stderr, "Suggestion: "+s)
	}
}

// printResult prints a confirmation line, or data as JSON.
func printResult(text string, data any) {
	if JSONOutput() {
		_ = writeJSON(os.Stdout, data)
		return
	}
	_, _ = successColor.Println(text)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table provides a simple table formatter.
type Table struct {
	w       *tabwriter.Writer
	headers []string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return NewTableWriter(os.Stdout, headers...)
}

// NewTableWriter creates a table writing to a specific writer.
func NewTableWriter(out io.Writer, headers ...string) *Table {
	t := &Table{
		w:       tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		headers: headers,
	}
	if len(headers) > 0 {
		_, _ = t.w.Write([]byte(strings.Join(headers, "\t") + "\n"))
	}
	return t
}

// Row adds a row to the table.
func (t *Table) Row(values ...string) {
	_, _ = t.w.Write([]byte(strings.Join(values, "\t") + "\n"))
}

// Flush writes the table output.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

// StatusIcon returns an icon for the given boolean status.
func StatusIcon(active bool) string {
	if active {
		return "●"
	}
	return "○"
}

// FormatDuration formats a duration as mm:ss or hh:mm:ss.
func FormatDuration(d time.Duration) string {
	seconds := int(d.Round(time.Second) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParsePosition parses a playhead position given as seconds, mm:ss, or hh:mm:ss.
func ParsePosition(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty position")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid position %q (use seconds, mm:ss, or hh:mm:ss)", s)
	}

	var total int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid position %q (use seconds, mm:ss, or hh:mm:ss)", s)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid position %q: field %q must be below 60", s, p)
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}

// FormatProgress formats a progress bar.
func FormatProgress(current, total time.Duration, width int) string {
	if total <= 0 {
		return strings.Repeat("─", width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func cmdOut(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
