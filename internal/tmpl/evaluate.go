package tmpl

import (
	"context"
	"regexp"
	"strings"

	"github.com/taylordaughtry/formie/internal/form"
)

// shorthand matches {handle} and {handle.sub} references in object templates.
var shorthand = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}`)

// Evaluator renders object templates such as notification subjects against
// a submission. Besides full template syntax it accepts {handle} as a
// shorthand for {{ object.handle }}.
type Evaluator struct {
	engine *Engine
}

func NewEvaluator(engine *Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

func (ev *Evaluator) Evaluate(ctx context.Context, template string, s *form.Submission, f *form.Form, n *form.Notification) (string, error) {
	if !strings.Contains(template, "{") {
		return template, nil
	}
	data := map[string]any{"object": map[string]any{}}
	if s != nil {
		data["object"] = s.Context()
		data["submission"] = s.Context()
	}
	if f != nil {
		data["form"] = map[string]any{
			"id":     f.ID,
			"uid":    f.UID,
			"handle": f.Handle,
			"title":  f.Title,
		}
	}
	if n != nil {
		data["notification"] = map[string]any{
			"name":    n.Name,
			"subject": n.Subject,
			"to":      n.To,
			"from":    n.From,
		}
	}
	return ev.engine.RenderString(ExpandShorthand(template), data)
}

// ExpandShorthand rewrites {handle} references to {{ object.handle }},
// leaving {{ }} and {% %} blocks untouched.
func ExpandShorthand(src string) string {
	matches := shorthand.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if (start > 0 && (src[start-1] == '{' || src[start-1] == '%')) ||
			(end < len(src) && (src[end] == '}' || src[end] == '%')) {
			continue
		}
		b.WriteString(src[last:start])
		b.WriteString("{{ object." + src[m[2]:m[3]] + " }}")
		last = end
	}
	b.WriteString(src[last:])
	return b.String()
}
