// Package redaction rewrites text by replacing detected spans with mode-specific
// replacement strings.
package redaction

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/go-ports/piiscrub/internal/entitymap"
	"github.com/go-ports/piiscrub/internal/merge"
	"github.com/go-ports/piiscrub/internal/models"
)

// Replacement returns the string that stands in for span under mode:
// the entity map placeholder in mask mode, nothing in redact mode.
func Replacement(span models.Span, mode models.Mode, emap entitymap.Map) (string, error) {
	switch mode {
	case models.ModeMask:
		return emap.Placeholder(span.Label), nil
	case models.ModeRedact:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnknownMode, mode)
	}
}

// Redact returns text with every span replaced according to mode.
//
// Spans must lie within text and must not overlap. They are applied by
// descending start offset to a single buffer, so each replacement leaves the
// offsets of the spans still to be applied intact. An empty span list returns
// text unchanged.
func Redact(text string, spans []models.Span, mode models.Mode, emap entitymap.Map) (string, error) {
	if mode != models.ModeMask && mode != models.ModeRedact {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownMode, mode)
	}
	if len(spans) == 0 {
		return text, nil
	}

	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			return "", fmt.Errorf("%w: %s [%d,%d) in text of length %d",
				models.ErrSpanOutOfRange, s.Label, s.Start, s.End, len(text))
		}
	}
	if i, ok := merge.Overlapping(spans); ok {
		return "", fmt.Errorf("%w: span %d (%s) overlaps an earlier span", merge.ErrInvariant, i, spans[i].Label)
	}

	ordered := slices.Clone(spans)
	slices.SortFunc(ordered, func(a, b models.Span) int { return cmp.Compare(b.Start, a.Start) })

	buf := []byte(text)
	for _, s := range ordered {
		repl, err := Replacement(s, mode, emap)
		if err != nil {
			return "", err
		}
		buf = slices.Replace(buf, s.Start, s.End, []byte(repl)...)
	}
	return string(buf), nil
}
