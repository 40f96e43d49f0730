// Package stringutil provides helpers for displaying User-Agent strings.
package stringutil

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis shortens s to at most maxLength bytes for single-line display,
// appending "..." when it was cut. Surrounding space is trimmed, newlines
// become spaces and carriage returns are dropped. The cut never splits a
// UTF-8 sequence. With maxLength <= 3 there is no room for the ellipsis and
// the string is only cut.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	if maxLength < 0 {
		return ""
	}
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return cut(s, maxLength)
	}
	return cut(s, maxLength-3) + "..."
}

func cut(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
