// Package redactcmd implements the `piiscrub redact` command.
package redactcmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/piiscrub/cmd/piiscrub/shared"
	"github.com/go-ports/piiscrub/internal/models"
	"github.com/go-ports/piiscrub/internal/service"
)

// Command implements `piiscrub redact`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	mode     string
	file     string
	asJSON   bool
	entities bool
}

// New creates the redact command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "redact [text]",
		Short: "Mask or remove personal data in text (argument, --file, or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.mode, "mode", string(models.ModeMask), "mask: replace with placeholders; redact: delete")
	f.StringVar(&c.file, "file", "", "Read input from a file")
	f.BoolVar(&c.asJSON, "json", false, "Print the result and entities as JSON")
	f.BoolVar(&c.entities, "entities", false, "List the detected entities after the redacted text")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	// Reject a bad mode before touching the input or the provider.
	if _, err := models.ParseMode(c.mode); err != nil {
		return err
	}

	text, err := shared.ReadInput(cmd, args, c.file)
	if err != nil {
		return err
	}

	svc, err := service.New(c.ctx.ConfigPath)
	if err != nil {
		return err
	}

	result, err := svc.Redact(cmd.Context(), text, c.mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprint(out, result.Text)
	if !strings.HasSuffix(result.Text, "\n") {
		fmt.Fprintln(out)
	}
	if c.entities {
		fmt.Fprintln(out)
		shared.WriteEntities(out, result.Entities)
	}
	return nil
}
