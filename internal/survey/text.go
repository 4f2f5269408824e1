package survey

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips combining accents and collapses every whitespace run to a single space,
// so that "Quel est votre ÂGE" and "quel est votre age" compare equal.
func Normalize(s string) string {
	lowered := strings.ToLower(s)
	// transform.Chain keeps state between calls, so a fresh chain is built every time.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		folded = lowered
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Tokens splits normalized text into words, treating any non letter/digit rune as a separator.
func Tokens(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hasToken reports whether any word of label is one of the given (normalized) tokens.
func hasToken(label string, tokens ...string) bool {
	for _, word := range Tokens(label) {
		for _, tok := range tokens {
			if word == tok {
				return true
			}
		}
	}
	return false
}

// containsAny reports whether the normalized haystack contains any normalized needle.
func containsAny(haystack string, needles ...string) bool {
	h := Normalize(haystack)
	for _, n := range needles {
		if strings.Contains(h, Normalize(n)) {
			return true
		}
	}
	return false
}
