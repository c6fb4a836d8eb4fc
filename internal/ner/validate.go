package ner

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Generic words statistical models routinely mislabel as names or places.
var (
	personBlocklist   = []string{"city", "location", "ip"}
	locationBlocklist = []string{"city", "location"}
)

// locationLabels are the place-name categories subject to location checks.
var locationLabels = []string{"GPE", "LOCATION"}

// Validate applies the label-specific plausibility checks. Labels without
// checks are always accepted. Lengths are counted in runes.
func Validate(label, text string) (bool, string) {
	switch {
	case label == "PERSON":
		if n := utf8.RuneCountInString(text); n < 2 || n > 50 {
			return false, "length"
		}
		if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
			return false, "digit"
		}
		if slices.Contains(personBlocklist, fold(text)) {
			return false, "blocklist"
		}
	case slices.Contains(locationLabels, label):
		if n := utf8.RuneCountInString(text); n < 2 || n > 30 {
			return false, "length"
		}
		if slices.Contains(locationBlocklist, fold(text)) {
			return false, "blocklist"
		}
	}
	return true, ""
}

// fold case-folds s. A Caser carries state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
