// Package merge combines detector outputs into one ordered, non-overlapping
// span list.
//
// Priority is established before merging: the statistical detector only ever
// sees what the pattern detector left unclaimed, so Merge itself never has to
// arbitrate. Verify exists to check that contract.
package merge

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-ports/piiscrub/internal/models"
)

// ErrInvariant is returned by Verify when a merged list breaks an ordering,
// overlap or offset guarantee.
var ErrInvariant = errors.New("span invariant violated")

// OverlapsAny reports whether span shares at least one byte with any of accepted.
func OverlapsAny(accepted []models.Span, span models.Span) bool {
	return slices.ContainsFunc(accepted, span.Overlaps)
}

// Merge concatenates pattern then statistical spans and sorts the result by
// start offset. The sort is stable, so pattern spans precede statistical
// spans that begin at the same offset.
func Merge(pattern, statistical []models.Span) []models.Span {
	out := make([]models.Span, 0, len(pattern)+len(statistical))
	out = append(out, pattern...)
	out = append(out, statistical...)
	slices.SortStableFunc(out, func(a, b models.Span) int { return a.Start - b.Start })
	return out
}

// Overlapping returns the index of the first span that overlaps an earlier
// one. ok is false when the list is overlap-free. Order does not matter.
func Overlapping(spans []models.Span) (int, bool) {
	for i := range spans {
		if OverlapsAny(spans[:i], spans[i]) {
			return i, true
		}
	}
	return 0, false
}

// Verify checks that spans is sorted by start, pairwise non-overlapping,
// and that every span's offsets address its own text within text.
func Verify(text string, spans []models.Span) error {
	for i, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			return fmt.Errorf("%w: span %d %s [%d,%d) outside text of length %d",
				ErrInvariant, i, s.Label, s.Start, s.End, len(text))
		}
		if text[s.Start:s.End] != s.Text {
			return fmt.Errorf("%w: span %d %s [%d,%d) text mismatch", ErrInvariant, i, s.Label, s.Start, s.End)
		}
		if i == 0 {
			continue
		}
		prev := spans[i-1]
		if s.Start < prev.Start {
			return fmt.Errorf("%w: span %d starts before span %d", ErrInvariant, i, i-1)
		}
		if s.Start < prev.End {
			return fmt.Errorf("%w: span %d %s overlaps span %d %s", ErrInvariant, i, s.Label, i-1, prev.Label)
		}
	}
	return nil
}
