package convention

import "strings"

// pluralExemptSuffixes are word endings (matched case-insensitively)
// that are returned unchanged by Pluralize. These cover mass nouns and
// configuration-style feature names that read wrong with a trailing
// "s" bolted on.
var pluralExemptSuffixes = []string{
	"config",
	"health",
	"info",
	"data",
	"media",
}

// Pluralize applies the convention's deterministic ASCII pluralization
// heuristic:
//
//   - words already ending in "s" are returned unchanged
//   - words ending in an exempt suffix are returned unchanged
//   - consonant + "y" becomes "ies"
//   - "ch", "sh", "x", "z" endings get "es"
//   - everything else gets "s"
//
// Checks are case-insensitive; the input's casing is preserved in the
// stem. This is an approximation: irregular English nouns outside the
// fixed table in rules.go pluralize mechanically.
func Pluralize(word string) string {
	if word == "" {
		return word
	}

	lower := strings.ToLower(word)

	if strings.HasSuffix(lower, "s") {
		return word
	}
	for _, suffix := range pluralExemptSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return word
		}
	}

	if strings.HasSuffix(lower, "y") && len(word) >= 2 && !isVowel(lower[len(lower)-2]) {
		return word[:len(word)-1] + "ies"
	}

	if strings.HasSuffix(lower, "ch") || strings.HasSuffix(lower, "sh") ||
		strings.HasSuffix(lower, "x") || strings.HasSuffix(lower, "z") {
		return word + "es"
	}

	return word + "s"
}

// isVowel reports whether the (lower-case ASCII) byte is a vowel.
func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	default:
		return false
	}
}
