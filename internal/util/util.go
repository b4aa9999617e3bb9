// internal/util/util.go
package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes truncates a string to a maximum number of runes,
// appending an ellipsis if truncated.
func TruncateRunes(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}

// SingleLine collapses every run of whitespace, newlines included, into one space.
func SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Preview flattens text onto one line and truncates it to maxRunes.
func Preview(text string, maxRunes int) string {
	return TruncateRunes(SingleLine(text), maxRunes)
}
