package format

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		suffix   string
		translit bool
		want     string
	}{
		{"plain", "a.css", ".min", false, filepath.Join("out", "a.min.css")},
		{"no suffix", "a.css", "", false, filepath.Join("out", "a.css")},
		{"nested", filepath.Join("x", "y", "b.scss"), "-1", false, filepath.Join("out", "x", "y", "b-1.css")},
		{"hidden", ".site.css", ".min", false, filepath.Join("out", "site.min.css")},
		{"no extension", "style", ".min", false, filepath.Join("out", "style.min.css")},
		{"transliterated", filepath.Join("Sub", "My Site.css"), ".min", true, filepath.Join("out", "Sub", "my-site.min.css")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildOutputPath(tt.src, "out", tt.suffix, tt.translit); got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrepareOutput(t *testing.T) {
	log := zaptest.NewLogger(t)
	dir := t.TempDir()

	name := filepath.Join(dir, "new", "dir", "a.css")
	if err := prepareOutput(name, false, log); err != nil {
		t.Fatalf("prepareOutput() error = %v", err)
	}
	if fi, err := os.Stat(filepath.Dir(name)); err != nil || !fi.IsDir() {
		t.Errorf("output directory was not created: %v", err)
	}

	if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := prepareOutput(name, false, log); err == nil {
		t.Error("expected error for existing file")
	}
	if err := prepareOutput(name, true, log); err != nil {
		t.Errorf("prepareOutput() with overwrite error = %v", err)
	}
}

func TestTraceName(t *testing.T) {
	tests := map[string]string{
		"a.css":                          "a.css",
		filepath.Join("x", "y", "b.css"): "x_y_b.css",
		"stdin.css":                      "stdin.css",
	}
	for in, want := range tests {
		if got := traceName(in); got != want {
			t.Errorf("traceName(%q) = %q, want %q", in, got, want)
		}
	}
}
