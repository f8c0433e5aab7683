package css

import (
	"fmt"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap/zapcore"
)

// Stats describes CSS text in terms of grammar units.
type Stats struct {
	Bytes        int
	Rulesets     int
	AtRules      int
	Declarations int
	Comments     int
}

// Summarize runs grammar parser over text and counts what it sees. Text is
// never changed and malformed input is simply counted up to the first error.
func Summarize(text string) Stats {
	st := Stats{Bytes: len(text)}

	p := css.NewParser(parse.NewInputString(text), false)
	for {
		gt, _, _ := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return st
		case css.BeginRulesetGrammar:
			st.Rulesets++
		case css.AtRuleGrammar, css.BeginAtRuleGrammar:
			st.AtRules++
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			st.Declarations++
		case css.CommentGrammar:
			st.Comments++
		}
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("bytes=%d rulesets=%d at-rules=%d declarations=%d comments=%d",
		s.Bytes, s.Rulesets, s.AtRules, s.Declarations, s.Comments)
}

// Empty reports absence of anything a browser would apply.
func (s Stats) Empty() bool {
	return s.Rulesets == 0 && s.AtRules == 0 && s.Declarations == 0
}

// MarshalLogObject makes Stats usable with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("bytes", s.Bytes)
	enc.AddInt("rulesets", s.Rulesets)
	enc.AddInt("at-rules", s.AtRules)
	enc.AddInt("declarations", s.Declarations)
	enc.AddInt("comments", s.Comments)
	return nil
}
