package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"short stays whole", "brake pads for loader 7", 80, "brake pads for loader 7"},
		{"exact length stays whole", strings.Repeat("a", 80), 80, strings.Repeat("a", 80)},
		{"long ascii cut", strings.Repeat("a", 100), 80, strings.Repeat("a", 80)},
		{"empty", "", 80, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateTitle(tt.input, tt.max); got != tt.want {
				t.Errorf("truncateTitle(%q, %d) = %q", tt.input, tt.max, got)
			}
		})
	}
}

func TestTruncateTitleNeverSplitsRunes(t *testing.T) {
	// 79 ascii chars then a 3-byte character straddling the boundary
	input := strings.Repeat("a", 79) + "日本語"

	got := truncateTitle(input, 80)

	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if want := strings.Repeat("a", 79) + "日"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if n := utf8.RuneCountInString(got); n != 80 {
		t.Errorf("rune count = %d, want 80", n)
	}
}
