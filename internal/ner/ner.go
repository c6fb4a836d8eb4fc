// Package ner adapts an external named-entity recognizer to the span model.
//
// The recognizer itself is a black box behind the Provider interface. The
// Adapter calls it once per text, drops numeral and unrecognized labels,
// drops anything overlapping an already-accepted span, and applies the
// label-specific validation in Validate.
package ner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"unicode/utf8"

	"github.com/go-ports/piiscrub/internal/entitymap"
	"github.com/go-ports/piiscrub/internal/merge"
	"github.com/go-ports/piiscrub/internal/models"
)

var (
	// ErrProviderFailed wraps any error returned by a Provider.
	ErrProviderFailed = errors.New("ner provider failed")
	// ErrSpanOutOfRange is returned when a provider reports offsets outside
	// the text or off a rune boundary.
	ErrSpanOutOfRange = models.ErrSpanOutOfRange
)

// DefaultExcludedLabels are pure-count categories that produce too many
// false positives on ordinary numbers.
var DefaultExcludedLabels = []string{"CARDINAL"}

// Provider is the interface for statistical entity recognizers.
// Offsets in the returned candidates are byte offsets into text.
type Provider interface {
	Detect(ctx context.Context, text string) ([]models.Candidate, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string) ([]models.Candidate, error)

// Detect calls f.
func (f ProviderFunc) Detect(ctx context.Context, text string) ([]models.Candidate, error) {
	return f(ctx, text)
}

// ValidatorFunc decides whether a candidate's text is plausible for its label.
// reason is only meaningful when ok is false.
type ValidatorFunc func(label, text string) (ok bool, reason string)

// Adapter turns provider output into validated statistical spans.
// It holds no per-call state and is safe for concurrent use when its
// Provider is.
type Adapter struct {
	provider Provider
	emap     entitymap.Map
	excluded []string
	validate ValidatorFunc
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithExcludedLabels replaces the excluded label list.
func WithExcludedLabels(labels ...string) Option {
	return func(a *Adapter) { a.excluded = slices.Clone(labels) }
}

// WithValidator replaces the label validator.
func WithValidator(fn ValidatorFunc) Option {
	return func(a *Adapter) { a.validate = fn }
}

// NewAdapter wraps provider. emap supplies the recognized label set.
func NewAdapter(provider Provider, emap entitymap.Map, opts ...Option) *Adapter {
	a := &Adapter{
		provider: provider,
		emap:     emap,
		excluded: slices.Clone(DefaultExcludedLabels),
		validate: Validate,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Detect runs the provider over text and returns the candidates that survive
// filtering, in provider order. accepted holds spans already claimed by
// higher-priority detectors; a candidate overlapping any of them, or any
// earlier surviving candidate, is dropped.
func (a *Adapter) Detect(ctx context.Context, text string, accepted []models.Span) ([]models.Span, error) {
	cands, err := a.provider.Detect(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}

	taken := slices.Clone(accepted)
	var out []models.Span
	for _, cand := range cands {
		if err := checkOffsets(text, cand); err != nil {
			return nil, err
		}
		if slices.Contains(a.excluded, cand.Label) {
			continue
		}
		if !a.emap.Has(cand.Label) {
			slog.Debug("ner: unrecognized label", "label", cand.Label)
			continue
		}

		span := models.Span{
			Label:  cand.Label,
			Text:   text[cand.Start:cand.End],
			Start:  cand.Start,
			End:    cand.End,
			Source: models.SourceStatistical,
		}
		if merge.OverlapsAny(taken, span) {
			slog.Debug("ner: candidate overlaps accepted span", "label", span.Label, "start", span.Start, "end", span.End)
			continue
		}
		if ok, reason := a.validate(span.Label, span.Text); !ok {
			slog.Debug("ner: candidate rejected", "label", span.Label, "start", span.Start, "reason", reason)
			continue
		}

		out = append(out, span)
		taken = append(taken, span)
	}
	return out, nil
}

func checkOffsets(text string, c models.Candidate) error {
	if c.Start < 0 || c.End > len(text) || c.Start >= c.End {
		return fmt.Errorf("%w: %s [%d,%d) in text of length %d", ErrSpanOutOfRange, c.Label, c.Start, c.End, len(text))
	}
	if !isRuneStart(text, c.Start) || !isRuneStart(text, c.End) {
		return fmt.Errorf("%w: %s [%d,%d) splits a UTF-8 sequence", ErrSpanOutOfRange, c.Label, c.Start, c.End)
	}
	return nil
}

func isRuneStart(s string, i int) bool {
	return i == len(s) || utf8.RuneStart(s[i])
}
