// Package patterns implements the ordered pattern detector set: a list of
// (label, regular expression) rules scanned independently over raw text.
//
// Rule order is priority. Earlier rules win ties on equal start offsets
// during the self-overlap reduction, so phone rules are declared before the
// generic digit-run rules (credit cards), which precede looser textual
// patterns.
package patterns

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/go-ports/piiscrub/internal/models"
)

// ErrInvalidRule marks a rule that cannot be compiled. It is a configuration
// fault and is only ever returned while building a Set.
var ErrInvalidRule = errors.New("invalid pattern rule")

// Rule is one uncompiled detector rule.
type Rule struct {
	Label   string `yaml:"label"   json:"label"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// defaultRules is the built-in rule list. Phone rules end on a digit boundary
// and only allow a leading separator after an explicit country code, so they
// never claim a prefix of a longer digit run nor the whitespace before it.
var defaultRules = []Rule{
	// Phone numbers first.
	{"PHONE_NUMBER", `\+?44\s?\d{1,4}\s?\d{3,4}\s?\d{3,4}\b`},
	{"PHONE_NUMBER", `(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`},
	{"PHONE_NUMBER", `\(\d{3}\)\s?\d{3}[-.\s]?\d{4}\b`},

	// Credit cards, most specific first.
	{"CREDIT_CARD", `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`},   // 16-digit
	{"CREDIT_CARD", `\b\d{4}[- ]?\d{6}[- ]?\d{5}\b`},             // Amex
	{"CREDIT_CARD", `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{3}\b`},   // 15-digit
	{"CREDIT_CARD", `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{2,4}\b`}, // flexible

	{"SSN", `\b\d{3}-\d{2}-\d{4}\b`},

	{"EMAIL", `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`},
	{"URL", `https?://[^\s<>"]+|\bwww\.[^\s<>"]+`},
	{"IP_ADDRESS", `\b(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`},
	{"DATE", `\b(?:0?[1-9]|[12][0-9]|3[01])[/-](?:0?[1-9]|1[0-2])[/-](?:\d{4}|\d{2})\b`},
	{"TIME", `\b(?:[01]?[0-9]|2[0-3]):[0-5][0-9]\b`},
}

// DefaultRules returns a copy of the built-in ordered rule list.
func DefaultRules() []Rule {
	return slices.Clone(defaultRules)
}

// Match is a single regular-expression hit.
type Match struct {
	Start int
	End   int
	Text  string
}

// CompiledRule is a Rule with its compiled, case-insensitive expression.
type CompiledRule struct {
	Rule
	re *regexp.Regexp
}

// Matches yields every non-overlapping match of the rule in text, leftmost
// first. The sequence is finite and may be ranged over more than once.
func (r *CompiledRule) Matches(text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			if !yield(Match{Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]}) {
				return
			}
		}
	}
}

// Set is an immutable, ordered collection of compiled rules.
type Set struct {
	rules []*CompiledRule
}

// Compile validates and compiles rules, preserving their order.
func Compile(rules []Rule) (*Set, error) {
	compiled := make([]*CompiledRule, 0, len(rules))
	for i, r := range rules {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: rule %d: empty label", ErrInvalidRule, i)
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("%w: rule %d (%s): empty pattern", ErrInvalidRule, i, label)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s): %w", ErrInvalidRule, i, label, err)
		}
		compiled = append(compiled, &CompiledRule{
			Rule: Rule{Label: label, Pattern: r.Pattern},
			re:   re,
		})
	}
	return &Set{rules: compiled}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(rules []Rule) *Set {
	s, err := Compile(rules)
	if err != nil {
		panic(fmt.Sprintf("patterns.Compile: %v", err))
	}
	return s
}

// Default returns the built-in rule set.
func Default() *Set {
	return MustCompile(defaultRules)
}

// Rules returns the uncompiled rules in declared order.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Rule
	}
	return out
}

// Compiled returns the compiled rules in declared order.
func (s *Set) Compiled() []*CompiledRule {
	return slices.Clone(s.rules)
}

// Labels returns the distinct labels produced by the set, in rule order.
func (s *Set) Labels() []string {
	var out []string
	for _, r := range s.rules {
		if !slices.Contains(out, r.Label) {
			out = append(out, r.Label)
		}
	}
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.rules) }

// Scan returns every match of every rule, grouped by rule in declared order.
// Overlapping matches are not resolved.
func (s *Set) Scan(text string) []models.Span {
	var out []models.Span
	for _, r := range s.rules {
		for m := range r.Matches(text) {
			out = append(out, models.Span{
				Label:  r.Label,
				Text:   m.Text,
				Start:  m.Start,
				End:    m.End,
				Source: models.SourcePattern,
			})
		}
	}
	return out
}

// Detect scans text and reduces the matches to a non-overlapping list.
func (s *Set) Detect(text string) []models.Span {
	return Reduce(s.Scan(text))
}

// Reduce sorts spans by start (stably, so input order breaks ties) and keeps
// a span only when it starts at or after the end of the last kept span.
func Reduce(spans []models.Span) []models.Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := slices.Clone(spans)
	slices.SortStableFunc(sorted, func(a, b models.Span) int { return a.Start - b.Start })

	out := make([]models.Span, 0, len(sorted))
	for i := 0; i < len(sorted); {
		kept := sorted[i]
		out = append(out, kept)
		j := i + 1
		for j < len(sorted) && sorted[j].Start < kept.End {
			j++
		}
		i = j
	}
	return out
}
