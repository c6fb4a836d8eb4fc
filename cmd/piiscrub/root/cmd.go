// Package rootcmd wires the root cobra.Command for the piiscrub CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	configcmd "github.com/go-ports/piiscrub/cmd/piiscrub/config"
	detectcmd "github.com/go-ports/piiscrub/cmd/piiscrub/detect"
	mcpcmd "github.com/go-ports/piiscrub/cmd/piiscrub/mcp"
	redactcmd "github.com/go-ports/piiscrub/cmd/piiscrub/redact"
	rulescmd "github.com/go-ports/piiscrub/cmd/piiscrub/rules"
	"github.com/go-ports/piiscrub/cmd/piiscrub/shared"
	versioncmd "github.com/go-ports/piiscrub/cmd/piiscrub/version"
	"github.com/go-ports/piiscrub/internal/config"
	"github.com/go-ports/piiscrub/internal/logging"
)

// New creates and returns the root cobra.Command for the piiscrub CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "piiscrub",
		Short:         "piiscrub: detect and redact personal data in text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initLogging(cmd, ctx)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&ctx.ConfigPath, "config", "",
		"Config file (default: $PIISCRUB_CONFIG → ~/.config/piiscrub/config.yaml)")
	f.StringVar(&ctx.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	f.StringVar(&ctx.LogFormat, "log-format", "", "Log format: text, json (overrides config)")

	root.AddCommand(
		redactcmd.New(ctx).Cmd(),
		detectcmd.New(ctx).Cmd(),
		rulescmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
		versioncmd.New(ctx).Cmd(),
	)

	return root
}

// initLogging installs the slog default on stderr. Flags win over the
// environment, which wins over the config file. A config file that fails to
// load is reported later by the command that needs it.
func initLogging(cmd *cobra.Command, ctx *shared.Context) {
	level, format := "info", "text"

	path, _ := config.ResolveConfigPath(ctx.ConfigPath)
	if cfg, err := config.Load(path); err == nil {
		config.ApplyEnv(cfg)
		level, format = cfg.Log.Level, cfg.Log.Format
	}
	if ctx.LogLevel != "" {
		level = ctx.LogLevel
	}
	if ctx.LogFormat != "" {
		format = ctx.LogFormat
	}

	logging.Init(cmd.ErrOrStderr(), format, logging.ParseLevel(level))
}
