// Package css implements chained text rewriting of CSS documents.
package css

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/elliotchance/orderedmap/v3"
	"go.uber.org/zap"
)

var (
	declRe = regexp2.MustCompile(`(?:[\s\r\n]*)?(?<prop>[A-Za-z0-9_-]+)\s*:\s*(?<value>[^;\r\n]+)`, regexp2.Multiline)

	// at-rule with a single level body, used by Merge
	flatMediaRe = regexp2.MustCompile(`(?<media>@(media|container)\s*\([^\)]*\))\s*\{(?<content>[^\}]*)\}`, regexp2.Multiline)
	// body of a class rule, selector itself is not captured
	classBlockRe = regexp2.MustCompile(`(?<=\.)[^{]+\{(?<content>[^{}]*)\}`, regexp2.Multiline)

	undefinedBlockRe = regexp2.MustCompile(`^[^{}]*(?:[.#][a-zA-Z0-9_-]+)[^{]*\{[^}]*\b(?:[a-z-]+):\s*undefined\s*;?[^}]*\}`, regexp2.Multiline)

	rgbRe = regexp2.MustCompile(`rgb\(\s*(?<red>[0-9]+)\s+(?<green>[0-9]+)\s+(?<blue>[0-9]+)(?:\s*/\s*(?<alpha>[0-9%.]+))?\s*\)`, regexp2.Multiline)

	// headers of at-rule blocks, bodies are located by brace counting
	mediaHeaderRe = regexp2.MustCompile(`@(?<type>media|container)\s*(?<cond>\([^)]+\))\s*\{`, regexp2.Singleline)
	anyMediaHeaderRe = regexp2.MustCompile(`@(?:media|container)[^{]+\{`, regexp2.Singleline)
)

// dropping a comment may glue "/" and "*" into a new one, so this pass
// repeats until nothing changes
var commentRe = regexp2.MustCompile(`/\*[\s\S]*?\*/`, regexp2.Multiline)

// whitespace passes, order matters
var minifyPasses = []struct {
	re   *regexp2.Regexp
	repl string
}{
	{regexp2.MustCompile(`;\s+`, regexp2.Multiline), ";"},
	{regexp2.MustCompile(`:\s+`, regexp2.Multiline), ":"},
	{regexp2.MustCompile(`\)\s*\{`, regexp2.Multiline), "){"},
	{regexp2.MustCompile(`\s+\(`, regexp2.Multiline), "("},
	{regexp2.MustCompile(`\{\s+`, regexp2.Multiline), "{"},
	{regexp2.MustCompile(`\}\s+`, regexp2.Multiline), "}"},
	{regexp2.MustCompile(`\s*\{`, regexp2.Multiline), "{"},
	{regexp2.MustCompile(`[;\s]*\}`, regexp2.Multiline), "}"},
}

// Rewriter owns a CSS document and rewrites it in place. Every operation
// returns the same Rewriter so calls could be chained, the order of calls
// defines the result. Rewriter is not safe for concurrent use.
type Rewriter struct {
	log *zap.Logger
	css string
}

// NewRewriter creates rewriter for a private copy of src.
func NewRewriter(log *zap.Logger, src string) *Rewriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rewriter{log: log.Named("css-rewriter"), css: strings.Clone(src)}
}

// Get returns current state of the document.
func (r *Rewriter) Get() string {
	return r.css
}

// ExtractCSS is the same as package level ExtractCSS, it does not touch the
// document.
func (r *Rewriter) ExtractCSS(content string, nested bool) string {
	return ExtractCSS(content, nested)
}

// ExtractCSS collects "property: value" pairs from content and serializes
// them one per line. When property repeats its last value is used, but the
// position of its first occurrence is kept. With nested set every line is
// indented with a single tab.
func ExtractCSS(content string, nested bool) string {
	props := orderedmap.NewOrderedMap[string, string]()

	m, err := declRe.FindStringMatch(content)
	for ; m != nil && err == nil; m, err = declRe.FindNextMatch(m) {
		props.Set(m.GroupByName("prop").String(), m.GroupByName("value").String())
	}

	var sb strings.Builder
	for prop, value := range props.AllFromFront() {
		if nested {
			sb.WriteByte('\t')
		}
		sb.WriteString(prop)
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteString(";\n")
	}
	return sb.String()
}

// Merge flattens all class rules of the document into a single declaration
// set and normalizes declarations inside single level media and container
// queries, which are appended after it. Selectors are not preserved.
func (r *Rewriter) Merge() *Rewriter {
	var (
		queries strings.Builder
		count   int
	)
	m, err := flatMediaRe.FindStringMatch(r.css)
	for ; m != nil && err == nil; m, err = flatMediaRe.FindNextMatch(m) {
		queries.WriteByte('\n')
		queries.WriteString(m.GroupByName("media").String())
		queries.WriteString(" {\n")
		queries.WriteString(ExtractCSS(m.GroupByName("content").String(), true))
		queries.WriteString("}\n")
		count++
	}
	if err != nil {
		r.log.Debug("Unable to scan media queries, leaving document unchanged", zap.Error(err))
		return r
	}

	rest, err := flatMediaRe.Replace(r.css, "", -1, -1)
	if err != nil {
		r.log.Debug("Unable to drop media queries, leaving document unchanged", zap.Error(err))
		return r
	}

	var body strings.Builder
	m, err = classBlockRe.FindStringMatch(rest)
	for ; m != nil && err == nil; m, err = classBlockRe.FindNextMatch(m) {
		body.WriteString(m.GroupByName("content").String())
	}
	if err != nil {
		r.log.Debug("Unable to scan rule blocks, leaving document unchanged", zap.Error(err))
		return r
	}

	r.css = ExtractCSS(body.String(), false) + queries.String()
	r.log.Debug("Merged rules", zap.Int("queries", count), zap.Int("bytes", len(r.css)))
	return r
}

// RemoveUndefined drops every class or id rule which has a declaration with
// literal "undefined" value. The whole rule goes away, not just declaration.
func (r *Rewriter) RemoveUndefined() *Rewriter {
	r.replaceAll("remove-undefined", undefinedBlockRe, "")
	return r
}

// CombineMediaQueries gathers bodies of all media and container queries with
// the same type and condition, on any nesting level, into a single block.
// Conditions are compared literally. Blocks are emitted after the rest of the
// document in the order their conditions were first seen.
func (r *Rewriter) CombineMediaQueries() *Rewriter {
	groups := orderedmap.NewOrderedMap[string, string]()

	rest, err := combine([]rune(r.css), groups)
	if err != nil {
		r.log.Debug("Unable to combine media queries, leaving document unchanged", zap.Error(err))
		return r
	}

	var sb strings.Builder
	sb.WriteString(rest)
	for key, content := range groups.AllFromFront() {
		sb.WriteByte('@')
		sb.WriteString(key)
		sb.WriteString("{\n")
		sb.WriteString(content)
		sb.WriteString("\n}\n")
	}
	r.css = sb.String()
	r.log.Debug("Combined media queries", zap.Int("groups", groups.Len()), zap.Int("bytes", len(r.css)))
	return r
}

// combine removes at-rule blocks from text accumulating their recursively
// combined bodies in groups and returns what is left. Own content of a block
// goes to its group before content of blocks nested in it.
func combine(text []rune, groups *orderedmap.OrderedMap[string, string]) (string, error) {
	var sb strings.Builder

	last := 0
	for {
		b, found, err := nextBlock(mediaHeaderRe, text, last)
		if err != nil {
			return "", err
		}
		if !found {
			break
		}
		sb.WriteString(string(text[last:b.start]))

		key := b.kind + b.cond
		addToGroup(groups, key, "")

		nested := orderedmap.NewOrderedMap[string, string]()
		inner, err := combine(b.body, nested)
		if err != nil {
			return "", err
		}
		addToGroup(groups, key, strings.TrimSpace(inner))
		for k, content := range nested.AllFromFront() {
			addToGroup(groups, k, content)
		}
		last = skipSpace(text, b.end)
	}
	sb.WriteString(string(text[last:]))
	return sb.String(), nil
}

// addToGroup registers key and appends non empty content on a new line.
func addToGroup(groups *orderedmap.OrderedMap[string, string], key, content string) {
	acc, ok := groups.Get(key)
	if ok && len(content) == 0 {
		return
	}
	if len(acc) > 0 && len(content) > 0 {
		acc += "\n"
	}
	groups.Set(key, acc+content)
}

// Minify removes comments and whitespace around punctuation.
func (r *Rewriter) Minify() *Rewriter {
	before := len(r.css)
	for prev := ""; prev != r.css; {
		prev = r.css
		r.replaceAll("minify", commentRe, "")
	}
	for _, p := range minifyPasses {
		r.replaceAll("minify", p.re, p.repl)
	}
	r.log.Debug("Minified", zap.Int("before", before), zap.Int("after", len(r.css)))
	return r
}

// FixRGB converts space separated rgb() notation to comma separated one.
// Alpha equal to 1 (or absent) is dropped.
func (r *Rewriter) FixRGB() *Rewriter {
	out, err := rgbRe.ReplaceFunc(r.css, func(m regexp2.Match) string {
		alpha := "1"
		if g := m.GroupByName("alpha"); g != nil && len(g.Captures) > 0 {
			alpha = g.String()
		}

		var sb strings.Builder
		sb.WriteString("rgb(")
		sb.WriteString(m.GroupByName("red").String())
		sb.WriteByte(',')
		sb.WriteString(m.GroupByName("green").String())
		sb.WriteByte(',')
		sb.WriteString(m.GroupByName("blue").String())
		if alpha != "1" {
			sb.WriteByte(',')
			sb.WriteString(alpha)
		}
		sb.WriteByte(')')
		return sb.String()
	}, -1, -1)
	if err != nil {
		r.log.Debug("Unable to rewrite rgb() values, leaving document unchanged", zap.Error(err))
		return r
	}
	r.css = out
	return r
}

// RemoveMediaQueries drops all media and container query blocks, including
// everything nested in them. The rest of the document is left as is.
func (r *Rewriter) RemoveMediaQueries() *Rewriter {
	text := []rune(r.css)

	var (
		sb    strings.Builder
		count int
	)
	last := 0
	for {
		b, found, err := nextBlock(anyMediaHeaderRe, text, last)
		if err != nil {
			r.log.Debug("Unable to remove media queries, leaving document unchanged", zap.Error(err))
			return r
		}
		if !found {
			break
		}
		sb.WriteString(string(text[last:b.start]))
		last = b.end
		count++
	}
	if count == 0 {
		return r
	}
	sb.WriteString(string(text[last:]))
	r.css = sb.String()
	r.log.Debug("Removed media queries", zap.Int("count", count), zap.Int("bytes", len(r.css)))
	return r
}

func (r *Rewriter) replaceAll(op string, re *regexp2.Regexp, repl string) {
	out, err := re.Replace(r.css, repl, -1, -1)
	if err != nil {
		r.log.Debug("Pattern matching failed, leaving document unchanged", zap.String("op", op), zap.Error(err))
		return
	}
	r.css = out
}
