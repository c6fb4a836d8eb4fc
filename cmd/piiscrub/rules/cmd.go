// Package rulescmd implements the `piiscrub rules` command.
package rulescmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/piiscrub/cmd/piiscrub/shared"
	"github.com/go-ports/piiscrub/internal/service"
)

// Command implements `piiscrub rules`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	asYAML bool
}

// New creates the rules command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "rules",
		Short: "Show the ordered pattern rules and the placeholder map in effect",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.asYAML, "yaml", false, "Print as YAML (loadable as a rule file)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.ConfigPath)
	if err != nil {
		return err
	}
	rules := svc.Rules()
	emap := svc.EntityMap()
	out := cmd.OutOrStdout()

	if c.asYAML {
		placeholders := make(map[string]string, emap.Len())
		for _, label := range emap.Labels() {
			placeholders[label] = emap.Placeholder(label)
		}
		b, err := yaml.Marshal(map[string]any{
			"rules":        rules,
			"placeholders": placeholders,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(b))
		return nil
	}

	fmt.Fprintf(out, "Pattern rules (%d, earlier wins on equal start):\n", len(rules))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, r := range rules {
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", i+1, r.Label, r.Pattern)
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\nPlaceholders (%d):\n", emap.Len())
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, label := range emap.Labels() {
		fmt.Fprintf(tw, "  %s\t%s\n", label, emap.Placeholder(label))
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\nStatistical provider: %s\n", svc.ProviderName())
	return nil
}
