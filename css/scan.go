package css

import (
	"unicode"

	"github.com/dlclark/regexp2"
)

// block is an at-rule found in text. Offsets are in runes, end is exclusive
// and points right after the closing brace.
type block struct {
	kind  string
	cond  string
	start int
	end   int
	body  []rune
}

// nextBlock looks for the first header matched by re at or after from, which
// has balanced body. Header pattern must end with opening brace. Headers
// without closing brace are skipped.
func nextBlock(re *regexp2.Regexp, text []rune, from int) (block, bool, error) {
	for from < len(text) {
		m, err := re.FindRunesMatchStartingAt(text, from)
		if err != nil || m == nil {
			return block{}, false, err
		}
		open := m.Index + m.Length - 1
		end := closingBrace(text, open)
		if end < 0 {
			from = m.Index + 1
			continue
		}
		b := block{start: m.Index, end: end + 1, body: text[open+1 : end]}
		if g := m.GroupByName("type"); g != nil {
			b.kind = g.String()
		}
		if g := m.GroupByName("cond"); g != nil {
			b.cond = g.String()
		}
		return b, true, nil
	}
	return block{}, false, nil
}

// closingBrace returns index of the brace closing the one at open or -1.
func closingBrace(text []rune, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipSpace(text []rune, pos int) int {
	for pos < len(text) && unicode.IsSpace(text[pos]) {
		pos++
	}
	return pos
}
