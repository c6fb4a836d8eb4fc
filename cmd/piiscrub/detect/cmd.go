// Package detectcmd implements the `piiscrub detect` command.
package detectcmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/go-ports/piiscrub/cmd/piiscrub/shared"
	"github.com/go-ports/piiscrub/internal/service"
)

// Command implements `piiscrub detect`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	file   string
	asJSON bool
}

// New creates the detect command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "detect [text]",
		Short: "List personal data found in text without changing it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.file, "file", "", "Read input from a file")
	f.BoolVar(&c.asJSON, "json", false, "Print entities as JSON")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	text, err := shared.ReadInput(cmd, args, c.file)
	if err != nil {
		return err
	}

	svc, err := service.New(c.ctx.ConfigPath)
	if err != nil {
		return err
	}

	spans, err := svc.Detect(cmd.Context(), text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(spans)
	}
	shared.WriteEntities(out, spans)
	return nil
}
