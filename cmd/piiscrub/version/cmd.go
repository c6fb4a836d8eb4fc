// Package versioncmd implements the `piiscrub version` command.
package versioncmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/piiscrub/cmd/piiscrub/shared"
	"github.com/go-ports/piiscrub/internal/buildinfo"
)

// Command implements `piiscrub version`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the version command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (*Command) run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "piiscrub %s\n", buildinfo.Version)
	fmt.Fprintf(out, "  commit: %s (%s)\n", buildinfo.GitCommit, buildinfo.GitBranch)
	fmt.Fprintf(out, "  built:  %s\n", buildinfo.BuildDate)
	return nil
}
