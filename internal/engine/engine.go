// Package engine runs the full detect-and-redact pipeline over one text:
// pattern detection with self-overlap reduction, statistical detection
// restricted to unclaimed ranges, merge, then redaction.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-ports/piiscrub/internal/entitymap"
	"github.com/go-ports/piiscrub/internal/merge"
	"github.com/go-ports/piiscrub/internal/models"
	"github.com/go-ports/piiscrub/internal/ner"
	"github.com/go-ports/piiscrub/internal/patterns"
	"github.com/go-ports/piiscrub/internal/redaction"
)

// Engine is immutable after New and safe for concurrent use when its
// statistical provider is.
type Engine struct {
	rules   *patterns.Set
	emap    entitymap.Map
	adapter *ner.Adapter
}

// New returns an Engine. A nil adapter runs pattern detection only.
func New(rules *patterns.Set, emap entitymap.Map, adapter *ner.Adapter) *Engine {
	return &Engine{rules: rules, emap: emap, adapter: adapter}
}

// EntityMap returns the placeholder map used in mask mode.
func (e *Engine) EntityMap() entitymap.Map { return e.emap }

// Rules returns the pattern rule set.
func (e *Engine) Rules() *patterns.Set { return e.rules }

// HasStatistical reports whether a statistical detector is configured.
func (e *Engine) HasStatistical() bool { return e.adapter != nil }

// Detect returns the final entity list for text: sorted by start and
// non-overlapping, with pattern spans taking precedence over statistical ones.
// Blank text yields an empty list without running any detector.
func (e *Engine) Detect(ctx context.Context, text string) ([]models.Span, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Span{}, nil
	}

	pattern := e.rules.Detect(text)

	var statistical []models.Span
	if e.adapter != nil {
		var err error
		statistical, err = e.adapter.Detect(ctx, text, pattern)
		if err != nil {
			return nil, err
		}
	}

	spans := merge.Merge(pattern, statistical)
	slog.Debug("engine: detected", "pattern", len(pattern), "statistical", len(statistical), "bytes", len(text))
	return spans, nil
}

// DetectAndRedact detects entities in text and returns the text rewritten in
// mode together with the entity list. Blank text is returned unchanged.
func (e *Engine) DetectAndRedact(ctx context.Context, text string, mode models.Mode) (*models.Result, error) {
	spans, err := e.Detect(ctx, text)
	if err != nil {
		return nil, err
	}

	out, err := redaction.Redact(text, spans, mode, e.emap)
	if err != nil {
		return nil, err
	}
	return &models.Result{Text: out, Entities: spans}, nil
}
