package utils

import "strings"

// Truncate shortens s to at most maxLen runes, marking the cut with an ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "…"
}

// Flatten collapses every run of whitespace in s into a single space.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
