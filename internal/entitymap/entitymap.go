// Package entitymap holds the label → placeholder lookup used in mask mode.
// The set of keys doubles as the allow-list of recognized labels.
package entitymap

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// defaults mirrors the label vocabulary of common NER models (GPE, LOC, ORG)
// plus the pattern detector labels. CARDINAL has no entry.
var defaults = map[string]string{
	"PERSON":       "[PERSON]",
	"GPE":          "[LOCATION]",
	"LOC":          "[LOCATION]",
	"LOCATION":     "[LOCATION]",
	"ORG":          "[ORGANIZATION]",
	"ORGANIZATION": "[ORGANIZATION]",
	"DATE":         "[DATE]",
	"TIME":         "[TIME]",
	"MONEY":        "[MONEY]",
	"PERCENT":      "[PERCENT]",
	"EMAIL":        "[EMAIL]",
	"IP_ADDRESS":   "[IP_ADDRESS]",
	"PHONE_NUMBER": "[PHONE_NUMBER]",
	"CREDIT_CARD":  "[CREDIT_CARD]",
	"URL":          "[URL]",
	"SSN":          "[SSN]",
}

// Map is an immutable label → placeholder mapping. The zero value is empty.
type Map struct {
	m map[string]string
}

// Default returns the built-in entity map.
func Default() Map {
	return New(defaults)
}

// New returns a Map holding a copy of m.
func New(m map[string]string) Map {
	return Map{m: maps.Clone(m)}
}

// WithOverrides returns a new Map with overrides layered on top of m.
// An empty placeholder value is kept as-is.
func (e Map) WithOverrides(overrides map[string]string) Map {
	out := maps.Clone(e.m)
	if out == nil {
		out = make(map[string]string, len(overrides))
	}
	for k, v := range overrides {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return Map{m: out}
}

// Placeholder returns the placeholder for label, or "[<LABEL>]" when the
// label has no entry.
func (e Map) Placeholder(label string) string {
	if p, ok := e.m[label]; ok {
		return p
	}
	return "[" + label + "]"
}

// Has reports whether label is a recognized label.
func (e Map) Has(label string) bool {
	_, ok := e.m[label]
	return ok
}

// Labels returns the recognized labels in sorted order.
func (e Map) Labels() []string {
	return slices.Sorted(maps.Keys(e.m))
}

// Len returns the number of entries.
func (e Map) Len() int { return len(e.m) }

// RequireLabels returns an error naming every label with no entry.
func (e Map) RequireLabels(labels ...string) error {
	var missing []string
	for _, l := range labels {
		if !e.Has(l) && !slices.Contains(missing, l) {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("entity map has no placeholder for: %s", strings.Join(missing, ", "))
	}
	return nil
}
