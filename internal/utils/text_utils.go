package utils

import (
	"strings"
	"unicode/utf8"
)

// Snippet collapses whitespace runs to single spaces and truncates the
// result to maxSize bytes on a valid UTF-8 boundary. A maxSize of 0 or
// less means no limit.
func Snippet(text string, maxSize int) string {
	s := strings.Join(strings.Fields(text), " ")
	if maxSize <= 0 || len(s) <= maxSize {
		return s
	}

	truncated := s[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

// SanitizeUTF8 drops invalid UTF-8 sequences from the string.
func SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}
	return string(result)
}
