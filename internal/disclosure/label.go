package disclosure

import (
	"math"
	"strconv"
	"time"
)

// Content kinds with a dedicated summary label.
const (
	KindReasoning       = "reasoning"
	KindCodeInterpreter = "code_interpreter"
	KindToolCalls       = "tool_calls"
)

// Catalog keys used for summary labels.
const (
	KeyThinking          = "Thinking..."
	KeyThoughtFor        = "Thought for {{DURATION}}"
	KeyThoughtForSeconds = "Thought for {{DURATION}} seconds"
	KeyThoughtBriefly    = "Thought for less than a second"
	KeyAnalyzing         = "Analyzing..."
	KeyAnalyzed          = "Analyzed"
	KeyExecuting         = "Executing {{NAME}}..."
	KeyViewResult        = "View Result from {{NAME}}"
)

// humanizeThreshold is the duration from which reasoning time is phrased
// relative ("a minute") instead of as a seconds count.
const humanizeThreshold = 60

// Content is the part of the attribute set that drives the summary label.
// Done is nil before the work starts and "true" once it completed.
type Content struct {
	Kind     string
	Done     *string
	Duration *float64
	Name     string
}

// Complete reports whether the content finished.
func (c Content) Complete() bool {
	return c.Done != nil && *c.Done == "true"
}

// Label picks the collapsed-state summary. Nil collaborators fall back to the
// English catalog and humanizer.
func Label(content Content, title string, tr Translator, h Humanizer) string {
	if tr == nil {
		tr = English()
	}
	if h == nil {
		h = EnglishHumanizer{}
	}

	switch content.Kind {
	case KindReasoning:
		if !content.Complete() {
			return tr.Translate(KeyThinking, nil)
		}
		if content.Duration == nil || *content.Duration <= 0 {
			return tr.Translate(KeyThoughtBriefly, nil)
		}
		seconds := *content.Duration
		if seconds < humanizeThreshold {
			return tr.Translate(KeyThoughtForSeconds, map[string]string{
				"DURATION": strconv.FormatFloat(seconds, 'f', -1, 64),
			})
		}
		return tr.Translate(KeyThoughtFor, map[string]string{
			"DURATION": h.Humanize(time.Duration(math.Round(seconds * float64(time.Second)))),
		})
	case KindCodeInterpreter:
		if content.Complete() {
			return tr.Translate(KeyAnalyzed, nil)
		}
		return tr.Translate(KeyAnalyzing, nil)
	case KindToolCalls:
		placeholders := map[string]string{"NAME": content.Name}
		if content.Complete() {
			return tr.Translate(KeyViewResult, placeholders)
		}
		return tr.Translate(KeyExecuting, placeholders)
	default:
		return title
	}
}
