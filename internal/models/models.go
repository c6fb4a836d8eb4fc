// Package models defines the core data types shared by the detection pipeline.
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned by ParseMode for anything other than mask or redact.
	ErrUnknownMode = errors.New("unknown redaction mode")
	// ErrSpanOutOfRange marks a span whose offsets do not fit the text it was
	// detected in.
	ErrSpanOutOfRange = errors.New("span out of range")
)

// Source records which detector produced a span.
type Source string

const (
	SourcePattern     Source = "pattern"
	SourceStatistical Source = "statistical"
)

// Span is a labeled half-open byte range [Start, End) of the input text.
// Text is for display only; offsets are never recomputed from it.
type Span struct {
	Label  string `json:"label"`
	Text   string `json:"text"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Source Source `json:"-"`
}

// Len returns the width of the span in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && s.End > o.Start
}

// Candidate is one entity as reported by an NER provider, before filtering.
type Candidate struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Mode selects how a span is rewritten.
type Mode string

const (
	// ModeMask replaces each span with its labeled placeholder.
	ModeMask Mode = "mask"
	// ModeRedact deletes each span.
	ModeRedact Mode = "redact"
)

// ValidModes lists the accepted mode values.
var ValidModes = []string{string(ModeMask), string(ModeRedact)}

// ParseMode converts s to a Mode. Surrounding whitespace and case are ignored.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMask:
		return ModeMask, nil
	case ModeRedact:
		return ModeRedact, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownMode, s, strings.Join(ValidModes, ", "))
	}
}

// Result is the outcome of one detect-and-redact call.
type Result struct {
	Text     string `json:"redacted"`
	Entities []Span `json:"entities"`
}
