package ner

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-ports/piiscrub/internal/models"
)

// entityPrompt asks a generative model for entity strings rather than
// offsets; small models get offsets wrong, so Go locates the strings itself.
const entityPrompt = `Extract named entities from the text. Reply with JSON only, in the form
{"entities":[{"label":"PERSON","text":"..."}]}. Allowed labels: PERSON, GPE, LOC,
ORG, DATE, TIME, MONEY, PERCENT. Copy each entity text exactly as it appears.
If there are none, reply {"entities":[]}.
`

type entityList struct {
	Entities []struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	} `json:"entities"`
}

// locateEntities parses a model answer and maps every verbatim occurrence
// of each entity string in text to a byte-offset candidate. Entities the model
// paraphrased, and so cannot be found, are dropped.
func locateEntities(text, answer string) ([]models.Candidate, error) {
	var parsed entityList
	if err := json.Unmarshal([]byte(stripCodeFence(answer)), &parsed); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	var out []models.Candidate
	for _, e := range parsed.Entities {
		label := strings.ToUpper(strings.TrimSpace(e.Label))
		needle := strings.TrimSpace(e.Text)
		if label == "" || needle == "" {
			continue
		}
		out = appendOccurrences(out, text, label, needle)
	}
	return out, nil
}

// appendOccurrences adds one candidate per non-overlapping occurrence of
// needle in text, skipping positions already reported and hits that sit
// inside a longer word ("Ann" in "Annual").
func appendOccurrences(out []models.Candidate, text, label, needle string) []models.Candidate {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(needle)
		if !insideWord(text, start, end) && !containsRange(out, start, end) {
			out = append(out, models.Candidate{Label: label, Start: start, End: end, Text: needle})
		}
		from = end
	}
	return out
}

// insideWord reports whether [start,end) continues a word on either side:
// the match and its neighbour both have a letter or digit at the seam.
func insideWord(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		first, _ := utf8.DecodeRuneInString(text[start:end])
		if isWordRune(prev) && isWordRune(first) {
			return true
		}
	}
	if end < len(text) {
		last, _ := utf8.DecodeLastRuneInString(text[start:end])
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(last) && isWordRune(next) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func containsRange(cands []models.Candidate, start, end int) bool {
	for _, c := range cands {
		if c.Start == start && c.End == end {
			return true
		}
	}
	return false
}

// stripCodeFence removes a surrounding ``` fence some models add despite
// being asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
