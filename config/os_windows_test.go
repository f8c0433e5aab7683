//go:build windows

package config

import "testing"

func TestCleanFileName_Windows(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`print<v2>?.css`, "printv2.css"},
		{"con", "_con"},
		{"Aux.min", "_Aux.min"},
		{"console", "console"},
		{"lpt10", "lpt10"},
		{"site. .", "site"},
		{"...", badFileName},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
