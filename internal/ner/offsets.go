package ner

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-ports/piiscrub/internal/models"
)

// RuneOffsetsToBytes converts candidates whose offsets count code points
// (as Python-based recognizers report them) to byte offsets into text.
// An offset past the last rune is ErrSpanOutOfRange.
func RuneOffsetsToBytes(text string, cands []models.Candidate) ([]models.Candidate, error) {
	if len(cands) == 0 {
		return cands, nil
	}

	// byteAt[i] is the byte offset of rune i; byteAt[runeCount] == len(text).
	var byteAt []int
	if utf8.RuneCountInString(text) != len(text) {
		byteAt = make([]int, 0, len(text)+1)
		for i := range text {
			byteAt = append(byteAt, i)
		}
		byteAt = append(byteAt, len(text))
	}

	toByte := func(runeIdx int) (int, bool) {
		if byteAt == nil {
			return runeIdx, runeIdx >= 0 && runeIdx <= len(text)
		}
		if runeIdx < 0 || runeIdx >= len(byteAt) {
			return 0, false
		}
		return byteAt[runeIdx], true
	}

	out := make([]models.Candidate, len(cands))
	for i, c := range cands {
		start, okStart := toByte(c.Start)
		end, okEnd := toByte(c.End)
		if !okStart || !okEnd {
			return nil, fmt.Errorf("%w: %s rune offsets [%d,%d) in text of %d runes",
				ErrSpanOutOfRange, c.Label, c.Start, c.End, utf8.RuneCountInString(text))
		}
		c.Start, c.End = start, end
		out[i] = c
	}
	return out, nil
}
