// Package shared holds the context passed to all CLI commands.
package shared

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-ports/piiscrub/internal/models"
)

// ErrNoInput is returned when a command expecting text receives none.
var ErrNoInput = errors.New("no input text: pass it as an argument, with --file, or on stdin")

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// ConfigPath overrides the config file location.
	// When empty, resolution falls through to PIISCRUB_CONFIG → ~/.config/piiscrub/config.yaml.
	ConfigPath string
	// LogLevel and LogFormat override the config file's log section when set.
	LogLevel  string
	LogFormat string
}

// ReadInput returns the text to process: the first positional argument if
// present, else the contents of file, else everything on the command's stdin.
func ReadInput(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) > 0 && file != "":
		return "", errors.New("pass text as an argument or with --file, not both")
	case len(args) > 0:
		return args[0], nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(b), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
			return "", ErrNoInput
		}
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

// WriteEntities prints spans as an aligned table.
func WriteEntities(w io.Writer, spans []models.Span) {
	if len(spans) == 0 {
		fmt.Fprintln(w, "No entities found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tSTART\tEND\tTEXT")
	for _, s := range spans {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%q\n", s.Label, s.Start, s.End, s.Text)
	}
	_ = tw.Flush()
}
