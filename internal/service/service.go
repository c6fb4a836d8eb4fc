// Package service wires configuration, pattern rules, the entity map and the
// statistical provider into a ready-to-use Engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-ports/piiscrub/internal/config"
	"github.com/go-ports/piiscrub/internal/engine"
	"github.com/go-ports/piiscrub/internal/entitymap"
	"github.com/go-ports/piiscrub/internal/models"
	"github.com/go-ports/piiscrub/internal/ner"
	"github.com/go-ports/piiscrub/internal/patterns"
)

// ErrNoRules is returned when the configuration leaves the pattern detector
// without any rule.
var ErrNoRules = errors.New("no pattern rules configured")

// Service holds the immutable detection pipeline built from one configuration.
type Service struct {
	ConfigPath string
	Config     *config.Config
	Engine     *engine.Engine
}

// New resolves and loads the configuration (flag → env → default path),
// applies environment overrides and builds the engine.
// Any configuration fault is returned here, never per request.
func New(configPath string) (*Service, error) {
	path, source := config.ResolveConfigPath(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("service.New: load config %s: %w", path, err)
	}
	config.ApplyEnv(cfg)
	slog.Debug("config loaded", "path", path, "source", source)

	svc, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	svc.ConfigPath = path
	return svc, nil
}

// NewWithConfig builds a Service from an already-loaded configuration.
func NewWithConfig(cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("service.New: %w", err)
	}

	rules, err := buildRules(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("service.New: %w", err)
	}
	set, err := patterns.Compile(rules)
	if err != nil {
		return nil, fmt.Errorf("service.New: %w", err)
	}

	emap := entitymap.Default().WithOverrides(cfg.Placeholders)
	if err := emap.RequireLabels(set.Labels()...); err != nil {
		return nil, fmt.Errorf("service.New: %w", err)
	}

	provider, err := ner.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("service.New: %w", err)
	}
	var adapter *ner.Adapter
	if provider != nil {
		adapter = ner.NewAdapter(provider, emap, ner.WithExcludedLabels(cfg.NER.ExcludeLabels...))
	}

	slog.Debug("engine ready",
		"rules", set.Len(),
		"labels", emap.Len(),
		"provider", providerName(cfg),
	)

	return &Service{
		Config: cfg,
		Engine: engine.New(set, emap, adapter),
	}, nil
}

// buildRules returns the built-in rules followed by the rule file's, or the
// rule file's alone when ReplaceDefaults is set.
func buildRules(pc config.PatternsConfig) ([]patterns.Rule, error) {
	var extra []patterns.Rule
	if pc.File != "" {
		if _, err := os.Stat(pc.File); errors.Is(err, os.ErrNotExist) {
			slog.Warn("pattern rule file not found, using built-in rules only", "path", pc.File)
		}
		var err error
		extra, err = patterns.LoadRuleFile(pc.File)
		if err != nil {
			return nil, err
		}
	}

	if pc.ReplaceDefaults {
		if len(extra) == 0 {
			return nil, fmt.Errorf("%w: patterns.replace_defaults is set but %q holds no rules", ErrNoRules, pc.File)
		}
		return extra, nil
	}
	return append(patterns.DefaultRules(), extra...), nil
}

func providerName(cfg *config.Config) string {
	if cfg.NER.Provider == "" {
		return "none"
	}
	return cfg.NER.Provider
}

// ProviderName returns the configured statistical provider, or "none".
func (s *Service) ProviderName() string { return providerName(s.Config) }

// Rules returns the ordered pattern rules in effect.
func (s *Service) Rules() []patterns.Rule { return s.Engine.Rules().Rules() }

// EntityMap returns the placeholder map in effect.
func (s *Service) EntityMap() entitymap.Map { return s.Engine.EntityMap() }

// Redact validates mode and runs detect-and-redact over text.
func (s *Service) Redact(ctx context.Context, text, mode string) (*models.Result, error) {
	m, err := models.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return s.Engine.DetectAndRedact(ctx, text, m)
}

// Detect returns the final entity list for text.
func (s *Service) Detect(ctx context.Context, text string) ([]models.Span, error) {
	return s.Engine.Detect(ctx, text)
}
