package model

import (
	"fmt"
	"strings"
)

// Mode selects which evaluation passes an audit is allowed to run
type Mode string

const (
	ModeRaw      Mode = "raw"      // Static markup only
	ModeRendered Mode = "rendered" // Static + rendered DOM for every criterion
	ModeAI       Mode = "ai"       // Static + rendered + AI for every criterion
	ModeAuto     Mode = "auto"     // Per-criterion decision from the capability matrix
)

// ParseMode converts user input into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRaw, ModeRendered, ModeAI, ModeAuto:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unknown evaluation mode %q (expected raw, rendered, ai or auto)", s)
	}
}

// Verdict is the pass/fail classification of one criterion
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictFail    Verdict = "fail"
	VerdictPartial Verdict = "partial"
	VerdictNA      Verdict = "na"
)

// Source identifies the evaluation pass that produced an outcome
type Source string

const (
	SourceRaw      Source = "raw"
	SourceRendered Source = "rendered"
	SourceAI       Source = "ai"
)

// rank orders sources by precedence: raw < rendered < ai
func (s Source) rank() int {
	switch s {
	case SourceRendered:
		return 1
	case SourceAI:
		return 2
	default:
		return 0
	}
}

// Outranks reports whether s takes precedence over other
func (s Source) Outranks(other Source) bool {
	return s.rank() > other.rank()
}

// NeutralScore is the sub-score paired with a na verdict
const NeutralScore = 1

// PassAttempt records one pass run against a criterion
type PassAttempt struct {
	Source Source `json:"source"`
	OK     bool   `json:"ok"`
	Kind   string `json:"kind,omitempty"`  // Error classification when !OK
	Error  string `json:"error,omitempty"` // Error message when !OK
}

// Outcome is the result of evaluating one criterion
type Outcome struct {
	Code           string        `json:"code"`
	Title          string        `json:"title,omitempty"`
	Verdict        Verdict       `json:"verdict"`
	Score          int           `json:"score_0_2"`
	Details        Details       `json:"details"`
	Source         Source        `json:"source"`
	Level          Level         `json:"level"`
	Principle      string        `json:"principle"`
	ManualRequired bool          `json:"manual_required"`
	ScoreHint      *float64      `json:"score_hint,omitempty"` // Fraction in [0,1] when the check measured one
	Passes         []PassAttempt `json:"passes,omitempty"`
}

// Passed reports whether the verdict counts as a pass for aggregation
func (o Outcome) Passed() bool {
	return o.Verdict == VerdictPass
}

// IsNA reports whether the outcome carries the not-applicable marker or verdict
func (o Outcome) IsNA() bool {
	return o.Verdict == VerdictNA || o.Details.Bool(KeyNA)
}

// Clone returns a copy that shares no mutable state with o
func (o Outcome) Clone() Outcome {
	c := o
	c.Details = o.Details.Clone()
	if o.Passes != nil {
		c.Passes = append([]PassAttempt(nil), o.Passes...)
	}
	if o.ScoreHint != nil {
		h := *o.ScoreHint
		c.ScoreHint = &h
	}
	return c
}

// WithDetail returns a copy of o with key set in its details
func (o Outcome) WithDetail(key string, value any) Outcome {
	c := o.Clone()
	c.Details[key] = value
	return c
}

// WithPass returns a copy of o with the attempt appended to its pass trace
func (o Outcome) WithPass(p PassAttempt) Outcome {
	c := o.Clone()
	c.Passes = append(c.Passes, p)
	return c
}

// MarkNA returns a copy of o forced to not-applicable, with note appended to details.note
func (o Outcome) MarkNA(note string) Outcome {
	c := o.Clone()
	c.Verdict = VerdictNA
	c.Score = NeutralScore
	c.ScoreHint = nil
	c.Details[KeyNA] = true
	if note != "" {
		if prev, ok := c.Details[KeyNote].(string); ok && prev != "" {
			c.Details[KeyNote] = prev + " | NA: " + note
		} else {
			c.Details[KeyNote] = "NA: " + note
		}
	}
	return c
}

// Supersede returns next as the surviving outcome of a later pass. Diagnostic
// annotations (keys ending in "_error") and the pass trace of o are carried over;
// counters are not.
func (o Outcome) Supersede(next Outcome) Outcome {
	c := next.Clone()
	for k, v := range o.Details {
		if strings.HasSuffix(k, "_error") {
			if _, exists := c.Details[k]; !exists {
				c.Details[k] = v
			}
		}
	}
	c.Passes = append(append([]PassAttempt(nil), o.Passes...), next.Passes...)
	return c
}

// Well-known details keys
const (
	KeyNA               = "na"
	KeyNote             = "note"
	KeyApplicable       = "applicable"
	KeyViolations       = "violations"
	KeyOK               = "ok"
	KeyRatio            = "ratio"
	KeyAIInfo           = "ai_info"
	KeyAIError          = "ai_error"
	KeyRenderedRunError = "rendered_run_error"
	KeyContractError    = "contract_error"
)
