package stringutil

import (
	"testing"
)

func TestEllipsis(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{
			name:      "No truncation needed",
			input:     "curl/8.4.0",
			maxLength: 20,
			expected:  "curl/8.4.0",
		},
		{
			name:      "Truncate with ellipsis",
			input:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			maxLength: 16,
			expected:  "Mozilla/5.0 (...",
		},
		{
			name:      "maxLength at most 3",
			input:     "abcdefg",
			maxLength: 3,
			expected:  "abc",
		},
		{
			name:      "Leading and trailing spaces",
			input:     "   padded string   ",
			maxLength: 10,
			expected:  "padded ...",
		},
		{
			name:      "Newlines and carriage returns",
			input:     "foo\nbar\r\nbaz",
			maxLength: 20,
			expected:  "foo bar baz",
		},
		{
			name:      "Multibyte rune is not split",
			input:     "Safari/605 (日本語)",
			maxLength: 16,
			expected:  "Safari/605 (...",
		},
		{
			name:      "Negative maxLength",
			input:     "abc",
			maxLength: -1,
			expected:  "",
		},
		{
			name:      "Empty input",
			input:     "",
			maxLength: 5,
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ellipsis(tt.input, tt.maxLength); got != tt.expected {
				t.Errorf("Ellipsis(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.expected)
			}
		})
	}
}
