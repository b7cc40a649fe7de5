package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// fold normalizes text for keyword matching. Dotted capital I is mapped to a
// plain i before lower casing so Turkish and English terms fold the same way.
func fold(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "İ", "i")
	return cases.Lower(language.Und).String(s)
}

// tokenize splits folded text on whitespace and trims surrounding punctuation.
func tokenize(s string) []string {
	fields := strings.Fields(s)
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// lead returns the opening of s: its first line, capped at n runes.
func lead(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}

	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
