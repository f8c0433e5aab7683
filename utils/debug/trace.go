// Package debug produces plain text dumps stored in the debug report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TraceWriter records how a document changes while it passes through
// rewriting steps.
type TraceWriter struct {
	w     *strings.Builder
	steps int
}

// NewTraceWriter starts trace with source name and original text.
func NewTraceWriter(source, text string) *TraceWriter {
	tw := &TraceWriter{w: &strings.Builder{}}
	tw.Line(0, "source: %s", source)
	tw.TextBlock(1, "input", text)
	return tw
}

func (tw *TraceWriter) String() string {
	return tw.w.String()
}

func (tw *TraceWriter) Bytes() []byte {
	return []byte(tw.w.String())
}

// Steps returns number of recorded steps.
func (tw *TraceWriter) Steps() int {
	return tw.steps
}

// Step records result of a single named step.
func (tw *TraceWriter) Step(name, text string) {
	tw.steps++
	tw.Line(0, "step %d: %s (%d bytes)", tw.steps, name, len(text))
	tw.TextBlock(1, "result", text)
}

func (tw *TraceWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw *TraceWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

func (tw *TraceWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// quoted so multi-line documents stay on a single line
func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
