package css

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Step names single document operation, names are used in configuration.
type Step string

const (
	StepMerge              Step = "merge"
	StepRemoveUndefined    Step = "remove_undefined"
	StepCombineMedia       Step = "combine_media_queries"
	StepMinify             Step = "minify"
	StepFixRGB             Step = "fix_rgb"
	StepRemoveMediaQueries Step = "remove_media_queries"
)

func (s Step) String() string {
	return string(s)
}

var steps = map[Step]func(*Rewriter) *Rewriter{
	StepMerge:              (*Rewriter).Merge,
	StepRemoveUndefined:    (*Rewriter).RemoveUndefined,
	StepCombineMedia:       (*Rewriter).CombineMediaQueries,
	StepMinify:             (*Rewriter).Minify,
	StepFixRGB:             (*Rewriter).FixRGB,
	StepRemoveMediaQueries: (*Rewriter).RemoveMediaQueries,
}

// StepNames returns names of all known steps in stable order.
func StepNames() []string {
	return []string{
		string(StepMerge),
		string(StepRemoveUndefined),
		string(StepCombineMedia),
		string(StepMinify),
		string(StepFixRGB),
		string(StepRemoveMediaQueries),
	}
}

// ParseStep converts name to Step.
func ParseStep(name string) (Step, error) {
	s := Step(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := steps[s]; !ok {
		return "", fmt.Errorf("unknown step %q, expected one of: %s", name, strings.Join(StepNames(), ", "))
	}
	return s, nil
}

// ParseSteps converts list of names to steps. Empty names are ignored.
func ParseSteps(names []string) ([]Step, error) {
	res := make([]Step, 0, len(names))
	for _, n := range names {
		if len(strings.TrimSpace(n)) == 0 {
			continue
		}
		s, err := ParseStep(n)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

// TraceFunc is called after every step with the resulting document.
type TraceFunc func(step Step, css string)

// Apply runs steps one after another. Unknown steps are logged and skipped.
func (r *Rewriter) Apply(list []Step, trace TraceFunc) *Rewriter {
	for i, s := range list {
		fn, ok := steps[s]
		if !ok {
			r.log.Warn("Skipping unknown step", zap.String("step", string(s)))
			continue
		}
		before := len(r.css)
		fn(r)
		r.log.Debug("Step completed", zap.Int("n", i+1), zap.String("step", string(s)),
			zap.Int("before", before), zap.Int("after", len(r.css)))
		if trace != nil {
			trace(s, r.css)
		}
	}
	return r
}
