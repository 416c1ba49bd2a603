package cbuild_test

import (
	"testing"

	cbuild "github.com/smushy64/cbuild-sub000"
)

func Test_Match_Reports_Wildcard_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		// Literals.
		{"main.c", "main.c", true},
		{"main.c", "main.h", false},
		{"", "", true},
		{"", "a", false},
		{"a", "", false},

		// '?' consumes exactly one byte.
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"a?c", "abbc", false},
		{"?", "", false},
		{"?", "x", true},

		// '*' matches zero or more bytes.
		{"*", "", true},
		{"*", "anything at all", true},
		{"a*c", "ac", true},
		{"a*c", "aXYZc", true},
		{"a*c", "ab", false},
		{"*.c", "main.c", true},
		{"*.c", "main.h", false},
		{"*.c", ".c", true},

		// '*' crosses path separators.
		{"src/*.c", "src/main.c", true},
		{"*/main.c", "src/deep/main.c", true},
		{"*.c", "src/main.c", true},

		// Backtracking: a later literal forces '*' to re-expand.
		{"*b*c", "abxbyc", true},
		{"a*b*c", "aXbYbZc", true},
		{"a*b*c", "aXbY", false},
		{"*abc", "aabc", true},
		{"x**y", "xy", true},
		{"x**y", "xABCy", true},

		// Trailing stars absorb any remainder.
		{"main*", "main.c", true},
		{"main*", "main", true},
		{"main**", "main", true},
	}

	for _, tc := range tests {
		if got := cbuild.Match(tc.pattern, tc.name); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.pattern, tc.name, got, tc.want)
		}
	}
}
