package css_test

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"cssfmt/css"
)

func TestSummarize(t *testing.T) {
	src := "/* header */\n.a { color: red; margin: 0; }\n@media (min-width: 10px) { .b { color: blue; } }\n"

	st := css.Summarize(src)
	if st.Bytes != len(src) {
		t.Errorf("Bytes = %d, want %d", st.Bytes, len(src))
	}
	if st.Rulesets != 2 {
		t.Errorf("Rulesets = %d, want 2", st.Rulesets)
	}
	if st.AtRules != 1 {
		t.Errorf("AtRules = %d, want 1", st.AtRules)
	}
	if st.Declarations != 3 {
		t.Errorf("Declarations = %d, want 3", st.Declarations)
	}
	if st.Comments != 1 {
		t.Errorf("Comments = %d, want 1", st.Comments)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if st := css.Summarize(""); st != (css.Stats{}) {
		t.Errorf("Summarize(\"\") = %+v", st)
	}
}

func TestSummarize_MinifiedMatches(t *testing.T) {
	src := ".a {\n  color: red;\n}\n.b { margin: 0; padding: 0; }\n"
	before := css.Summarize(src)
	after := css.Summarize(css.NewRewriter(nil, src).Minify().Get())

	if before.Rulesets != after.Rulesets || before.Declarations != after.Declarations {
		t.Errorf("minification changed structure: %+v vs %+v", before, after)
	}
	if after.Bytes >= before.Bytes {
		t.Errorf("expected smaller output: %d >= %d", after.Bytes, before.Bytes)
	}
}

func TestStats_MarshalLogObject(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	zap.New(core).Debug("stats", zap.Object("css", css.Summarize(".a{b:c}")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	m, ok := fields["css"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected field type %T", fields["css"])
	}
	if fmt.Sprint(m["rulesets"]) != "1" || fmt.Sprint(m["declarations"]) != "1" {
		t.Errorf("unexpected encoded stats: %v", m)
	}
}

func TestStats_String(t *testing.T) {
	st := css.Summarize("/* c */ .a { b: c; }")
	want := "bytes=20 rulesets=1 at-rules=0 declarations=1 comments=1"
	if st.String() != want {
		t.Errorf("String() = %q, want %q", st.String(), want)
	}
}

func TestStats_Empty(t *testing.T) {
	tests := map[string]bool{
		"":                    true,
		"  \n":                true,
		"/* only comment */":  true,
		".a { b: c; }":        false,
		"@media (a) { }":      false,
		"@import url(x.css);": false,
	}
	for in, want := range tests {
		if got := css.Summarize(in).Empty(); got != want {
			t.Errorf("Summarize(%q).Empty() = %v, want %v", in, got, want)
		}
	}
}
