// Package configcmd implements the `piiscrub config` command group.
package configcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/piiscrub/cmd/piiscrub/shared"
	"github.com/go-ports/piiscrub/internal/config"
	"github.com/go-ports/piiscrub/internal/ner"
)

// Command implements `piiscrub config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Args:  cobra.NoArgs,
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(newConfigInit(ctx))
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	path, source := config.ResolveConfigPath(c.ctx.ConfigPath)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	config.ApplyEnv(cfg)

	_, statErr := os.Stat(path)
	nerSection := map[string]any{
		"provider":       cfg.NER.Provider,
		"base_url":       cfg.NER.BaseURL,
		"model":          cfg.NER.Model,
		"api_key":        redactAPIKey(cfg.NER.APIKey),
		"response_path":  cfg.NER.ResponsePath,
		"offsets":        cfg.NER.Offsets,
		"timeout":        cfg.NER.Timeout.String(),
		"exclude_labels": cfg.NER.ExcludeLabels,
	}
	if cfg.NER.Provider == "ollama" {
		nerSection["model_loaded"] = ner.IsOllamaModelLoaded(cfg.NER.Model, cfg.NER.BaseURL)
	}
	data := map[string]any{
		"ner": nerSection,
		"patterns": map[string]any{
			"file":             cfg.Patterns.File,
			"replace_defaults": cfg.Patterns.ReplaceDefaults,
		},
		"placeholders": cfg.Placeholders,
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
		"config_path":   path,
		"config_source": source,
		"config_exists": statErr == nil,
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

// ---------------------------------------------------------------------------
// config init
// ---------------------------------------------------------------------------

func newConfigInit(ctx *shared.Context) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := config.ResolveConfigPath(ctx.ConfigPath)
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
				fmt.Fprintln(out, "Use --force to overwrite.")
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, []byte(config.Template), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", cfgPath)
			fmt.Fprintln(out, "Edit the file to configure your entity recognizer.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}

func redactAPIKey(key string) string {
	if key != "" {
		return "<redacted>"
	}
	return ""
}
