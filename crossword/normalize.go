package crossword

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinAnswerLength is the shortest answer the builder will place.
const MinAnswerLength = 3

var upper = cases.Upper(language.Und)

// Normalize turns a raw term into its puzzle answer: uppercase, A-Z only.
func Normalize(term string) string {
	var b strings.Builder
	for _, r := range upper.String(term) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
