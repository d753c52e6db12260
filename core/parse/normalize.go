// Package parse turns free-text speech transcripts into answer values.
//
// Every function in this package is pure and total: unrecognized input yields
// nil, never an error or a panic.
package parse

import (
	"strings"
	"unicode"
)

// normalize lower-cases text, drops punctuation other than apostrophes and
// decimal points, and collapses whitespace.
func normalize(text string) string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))

	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			b.WriteRune(r)
		case r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// squeeze collapses runs of the same letter, so stretched words like "yess"
// and "nooo" compare equal to "yes" and "no". Digits are kept as they are.
func squeeze(normalized string) string {
	var b strings.Builder
	b.Grow(len(normalized))
	var prev rune
	for _, r := range normalized {
		if r == prev && unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// containsWord reports whether phrase occurs in normalized text on word
// boundaries. Repeated letters are ignored on both sides.
func containsWord(normalized, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+squeeze(normalized)+" ", " "+squeeze(phrase)+" ")
}

func containsAny(normalized string, phrases []string) bool {
	for _, phrase := range phrases {
		if containsWord(normalized, normalize(phrase)) {
			return true
		}
	}
	return false
}
