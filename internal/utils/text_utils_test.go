package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		maxSize int
		want    string
	}{
		{
			name:    "collapses whitespace runs",
			text:    "  hello \t\n  world  ",
			maxSize: 100,
			want:    "hello world",
		},
		{
			name:    "no limit when zero",
			text:    strings.Repeat("a ", 50),
			maxSize: 0,
			want:    strings.TrimSpace(strings.Repeat("a ", 50)),
		},
		{
			name:    "truncates to max bytes",
			text:    "abcdefghij",
			maxSize: 4,
			want:    "abcd",
		},
		{
			name:    "empty input",
			text:    "",
			maxSize: 10,
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Snippet(tt.text, tt.maxSize); got != tt.want {
				t.Errorf("Snippet(%q, %d) = %q, want %q", tt.text, tt.maxSize, got, tt.want)
			}
		})
	}
}

func TestSnippetUTF8Boundary(t *testing.T) {
	// "héllo" truncated inside the two-byte é must back off to "h".
	got := Snippet("héllo", 2)
	if !utf8.ValidString(got) {
		t.Fatalf("Snippet returned invalid UTF-8: %q", got)
	}
	if got != "h" {
		t.Errorf("Snippet = %q, want %q", got, "h")
	}
}

func TestSanitizeUTF8(t *testing.T) {
	valid := "plain ascii and héllo 世界"
	if got := SanitizeUTF8(valid); got != valid {
		t.Errorf("SanitizeUTF8 altered valid input: %q", got)
	}

	broken := "abc\xff\xfedef"
	got := SanitizeUTF8(broken)
	if !utf8.ValidString(got) {
		t.Fatalf("SanitizeUTF8 output invalid: %q", got)
	}
	if got != "abcdef" {
		t.Errorf("SanitizeUTF8 = %q, want abcdef", got)
	}
}
