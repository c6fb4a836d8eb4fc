package ner

import (
	"errors"
	"fmt"

	"github.com/go-ports/piiscrub/internal/config"
)

// ErrModelRequired is returned when a generative provider has no model configured.
var ErrModelRequired = errors.New("ner: model is required")

// NewProvider constructs a Provider from the given config.
// Returns (nil, nil) when the provider is "" or "none".
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.NER.Provider {
	case "sidecar":
		s, err := NewSidecar(cfg.NER.BaseURL, cfg.NER.ResponsePath, cfg.NER.Offsets == "rune", cfg.NER.Timeout)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "ollama":
		if cfg.NER.Model == "" {
			return nil, fmt.Errorf("%w for provider %q", ErrModelRequired, cfg.NER.Provider)
		}
		return NewOllama(cfg.NER.Model, cfg.NER.BaseURL, cfg.NER.Timeout), nil

	case "openai":
		if cfg.NER.Model == "" {
			return nil, fmt.Errorf("%w for provider %q", ErrModelRequired, cfg.NER.Provider)
		}
		return NewOpenAI(cfg.NER.Model, cfg.NER.APIKey, cfg.NER.BaseURL, cfg.NER.Timeout), nil

	case "", "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown ner provider: %s", cfg.NER.Provider)
	}
}
