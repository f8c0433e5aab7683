package debug

import (
	"strings"
	"testing"
)

func TestNewTraceWriter(t *testing.T) {
	tw := NewTraceWriter("a.css", ".a {\n}")
	want := "source: a.css\n  input: \".a {\\n}\"\n"
	if tw.String() != want {
		t.Errorf("String() = %q, want %q", tw.String(), want)
	}
	if tw.Steps() != 0 {
		t.Errorf("Steps() = %d, want 0", tw.Steps())
	}
}

func TestTraceWriter_Step(t *testing.T) {
	tw := NewTraceWriter("stdin", "")
	tw.Step("minify", ".a{b:c}")
	tw.Step("fix_rgb", "")

	want := "source: stdin\n" +
		"  input: \n" +
		"step 1: minify (7 bytes)\n" +
		"  result: \".a{b:c}\"\n" +
		"step 2: fix_rgb (0 bytes)\n" +
		"  result: \n"
	if got := tw.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if tw.Steps() != 2 {
		t.Errorf("Steps() = %d, want 2", tw.Steps())
	}
	if string(tw.Bytes()) != want {
		t.Error("Bytes() differs from String()")
	}
}

func TestTraceWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "test", nil, "test\n"},
		{"depth 1", 1, "indented", nil, "  indented\n"},
		{"depth 2", 2, "double indent", nil, "    double indent\n"},
		{"with formatting", 1, "value: %d", []any{42}, "  value: 42\n"},
		{"multiple args", 0, "%s = %d", []any{"count", 5}, "count = 5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := &TraceWriter{w: &strings.Builder{}}
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeText(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"plain":        `"plain"`,
		"a\tb\nc":      `"a\tb\nc"`,
		`say "hello"`:  `"say \"hello\""`,
		"unicode: é": `"unicode: é"`,
	}
	for in, want := range tests {
		if got := encodeText(in); got != want {
			t.Errorf("encodeText(%q) = %q, want %q", in, got, want)
		}
	}
}
