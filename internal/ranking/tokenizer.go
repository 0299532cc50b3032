package ranking

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and replaces every non-alphanumeric rune with a
// space. Pure function, no side effects.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits a query into normalized tokens, dropping empty ones.
// Token order follows the input.
func Tokenize(query string) []string {
	return strings.Fields(Normalize(query))
}
