package audit

import "github.com/ppiankov/wcagscan/internal/model"

// Summary is the per-run bookkeeping derived from final outcomes
type Summary struct {
	RawCodes        []string
	RenderedCodes   []string
	AICodes         []string
	ModeEffective   model.Mode
	VerdictCounts   map[model.Verdict]int
	WCAG            map[string]model.WCAGEntry
	Recommendations model.Recommendations
}

// Summarize groups outcomes by the pass that produced them and derives
// follow-up recommendations from the capability matrix.
func Summarize(outcomes []model.Outcome, matrix *Matrix, req Request) Summary {
	s := Summary{
		RawCodes:      []string{},
		RenderedCodes: []string{},
		AICodes:       []string{},
		VerdictCounts: map[model.Verdict]int{
			model.VerdictPass:    0,
			model.VerdictFail:    0,
			model.VerdictPartial: 0,
			model.VerdictNA:      0,
		},
		WCAG: make(map[string]model.WCAGEntry, len(outcomes)),
		Recommendations: model.Recommendations{
			ConsiderRenderedFor: []string{},
			ConsiderAIFor:       []string{},
		},
	}
	aiRequested := req.UseAI || req.Mode == model.ModeAI

	for _, o := range outcomes {
		switch o.Source {
		case model.SourceAI:
			s.AICodes = append(s.AICodes, o.Code)
		case model.SourceRendered:
			s.RenderedCodes = append(s.RenderedCodes, o.Code)
		default:
			s.RawCodes = append(s.RawCodes, o.Code)
		}
		s.VerdictCounts[o.Verdict]++
		s.WCAG[o.Code] = model.WCAGEntry{
			Passed:  o.Passed(),
			Status:  o.Verdict,
			Score:   o.Score,
			Source:  o.Source,
			Level:   o.Level,
			Details: o.Details,
		}

		caps := matrix.Lookup(o.Code)
		if o.Verdict == model.VerdictNA && caps.NeedsRendered {
			s.Recommendations.ConsiderRenderedFor = append(s.Recommendations.ConsiderRenderedFor, o.Code)
		}
		if aiRequested && caps.AIHelpful && !o.Details.Has(model.KeyAIInfo) {
			s.Recommendations.ConsiderAIFor = append(s.Recommendations.ConsiderAIFor, o.Code)
		}
	}

	switch {
	case len(s.AICodes) > 0:
		s.ModeEffective = model.ModeAI
	case len(s.RenderedCodes) > 0:
		s.ModeEffective = model.ModeRendered
	default:
		s.ModeEffective = model.ModeRaw
	}
	return s
}
