package utils

import (
	"reflect"
	"testing"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		// JSON array form
		{"json array", `["a","b"]`, []string{"a", "b"}},
		{"json array with spaces", `[" a ", "b"]`, []string{"a", "b"}},
		{"json array single", `["sup-1"]`, []string{"sup-1"}},
		{"json empty array", `[]`, []string{}},
		{"json array with empty token", `["a","","b"]`, []string{"a", "b"}},

		// Comma form
		{"comma separated", "a,b", []string{"a", "b"}},
		{"comma with spaces and trailing", "a, b ,", []string{"a", "b"}},
		{"single value", "a", []string{"a"}},
		{"only commas", ",,,", []string{}},

		// Edge cases
		{"empty string", "", []string{}},
		{"whitespace only", "   ", []string{}},
		{"uuid comma list", "5f1c9aa2-0f6e-4f3d-8f7b-9a1a2b3c4d5e, 7c2d0bb3-1a7f-5a4e-9a8c-0b2b3c4d5e6f",
			[]string{"5f1c9aa2-0f6e-4f3d-8f7b-9a1a2b3c4d5e", "7c2d0bb3-1a7f-5a4e-9a8c-0b2b3c4d5e6f"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseIDList(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseIDList(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}
