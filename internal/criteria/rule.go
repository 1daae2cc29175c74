// Package criteria implements the shipped WCAG success criterion heuristics.
//
// Every heuristic measures counters on a page snapshot, maps them to a verdict
// with the shared mapper in package score, and in AI mode asks the advisor for
// suggestions. The advisor never changes a verdict.
package criteria

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/llm"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
	"github.com/ppiankov/wcagscan/internal/score"
)

// maxOffenders caps the offender samples kept in details
const maxOffenders = 10

type measureFunc func(pc page.Context) model.Details

type judgeFunc func(d model.Details) (model.Verdict, *float64)

// question is what a rule asks the advisor in AI mode
type question struct {
	prompt string
	when   func(d model.Details) bool // nil always asks
}

// rule is a check.Checker built from measurement functions
type rule struct {
	code     string
	measure  measureFunc // Static markup; also used on rendered DOM unless rendered is set
	rendered measureFunc
	judge    judgeFunc // Defaults to score.VerdictFromDetails
	ask      *question
}

func (r *rule) Code() string { return r.code }

// Evaluate implements check.Checker
func (r *rule) Evaluate(ctx context.Context, in check.Input) (model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}

	var d model.Details
	switch in.Mode {
	case model.ModeRaw:
		d = r.measure(in.Static)
	case model.ModeRendered, model.ModeAI:
		d = r.measureRichest(in)
	default:
		return model.Outcome{}, fmt.Errorf("%w: %s", check.ErrModeUnsupported, in.Mode)
	}

	out := r.outcome(d)
	if in.Mode != model.ModeAI {
		return out, nil
	}

	info, manual, err := r.consult(ctx, in, out.Details)
	if err != nil {
		return model.Outcome{}, err
	}
	out = out.WithDetail(model.KeyAIInfo, info)
	out.ManualRequired = out.ManualRequired || manual
	return out, nil
}

func (r *rule) measureRichest(in check.Input) model.Details {
	if in.Rendered == nil {
		d := r.measure(in.Static)
		d["warning"] = "no rendered snapshot; measured static markup"
		return d
	}
	var d model.Details
	if r.rendered != nil {
		d = r.rendered(in.Rendered)
	} else {
		d = r.measure(in.Rendered)
	}
	d["rendered"] = true
	return d
}

func (r *rule) outcome(d model.Details) model.Outcome {
	judge := r.judge
	if judge == nil {
		judge = score.VerdictFromDetails
	}
	v, ratio := judge(d)
	if ratio != nil {
		rounded := round4(*ratio)
		d[model.KeyRatio] = rounded
		ratio = &rounded
	}

	o := model.Outcome{
		Code:      r.code,
		Verdict:   v,
		Score:     score.SubScore(v),
		Details:   d,
		ScoreHint: ratio,
	}
	if v == model.VerdictNA {
		note := "no applicable elements"
		if d.Bool(model.KeyNA) {
			note = ""
		}
		o = o.MarkNA(note)
	}
	return o
}

// consult asks the advisor about the measurements. A missing advisor is an
// error so the engine keeps the earlier outcome.
func (r *rule) consult(ctx context.Context, in check.Input, d model.Details) (map[string]any, bool, error) {
	if in.Advisor == nil {
		return nil, false, llm.ErrDisabled
	}
	if r.ask == nil {
		return map[string]any{"ai_used": false, "reason": "no advisory question for this criterion"}, false, nil
	}
	if r.ask.when != nil && !r.ask.when(d) {
		return map[string]any{"ai_used": false, "reason": "nothing to review"}, false, nil
	}

	measurements, err := json.Marshal(d)
	if err != nil {
		return nil, false, fmt.Errorf("encode measurements: %w", err)
	}
	pageContext := "MEASUREMENTS:\n" + string(measurements)
	if in.Excerpt != "" {
		pageContext += "\n\nHTML:\n" + in.Excerpt
	}

	prompt := fmt.Sprintf("WCAG %s (%s). %s", r.code, model.LookupCriterion(r.code).Title, r.ask.prompt)
	resp, err := in.Advisor.AskJSON(ctx, prompt, pageContext)
	if err != nil {
		return nil, false, err
	}
	manual, _ := resp["manual_review"].(bool)
	return map[string]any{"ai_used": true, "ai_review": resp}, manual, nil
}

// hasViolations is the common advisory trigger
func hasViolations(d model.Details) bool {
	v, ok := d.Int(model.KeyViolations)
	return ok && v > 0
}

func counts(applicable, violations int) model.Details {
	return model.Details{model.KeyApplicable: applicable, model.KeyViolations: violations}
}

func naDetails(note string) model.Details {
	return model.Details{model.KeyNA: true, model.KeyNote: note}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// offender is the compact description of a failing element kept in details
func offender(el page.Element, reason string) map[string]any {
	o := map[string]any{"tag": el.Tag, "reason": reason}
	for _, key := range []string{"id", "src", "href", "name", "type"} {
		if v := el.AttrValue(key); v != "" {
			if len(v) > 180 {
				v = v[:180]
			}
			o[key] = v
		}
	}
	if el.Text != "" {
		o["text"] = page.Truncate(el.Text, 80)
	}
	return o
}

func appendOffender(list []map[string]any, el page.Element, reason string) []map[string]any {
	if len(list) >= maxOffenders {
		return list
	}
	return append(list, offender(el, reason))
}

func visible(els []page.Element) []page.Element {
	out := make([]page.Element, 0, len(els))
	for _, el := range els {
		if !el.Hidden {
			out = append(out, el)
		}
	}
	return out
}
