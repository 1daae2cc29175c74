package score

import "github.com/ppiankov/wcagscan/internal/model"

// Verdict thresholds on the fraction of compliant items
const (
	PassThreshold    = 0.999
	PartialThreshold = 0.80
)

// VerdictFromRatio maps a compliance fraction to a verdict.
// r >= 0.999 is pass, 0.80 <= r < 0.999 partial, below 0.80 fail.
func VerdictFromRatio(r float64) model.Verdict {
	switch {
	case r >= PassThreshold:
		return model.VerdictPass
	case r >= PartialThreshold:
		return model.VerdictPartial
	default:
		return model.VerdictFail
	}
}

// VerdictFromOK maps ok-out-of-applicable counts; nothing applicable is na.
// The returned ratio is nil for na.
func VerdictFromOK(ok, applicable int) (model.Verdict, *float64) {
	if applicable <= 0 {
		return model.VerdictNA, nil
	}
	if ok < 0 {
		ok = 0
	}
	if ok > applicable {
		ok = applicable
	}
	r := float64(ok) / float64(applicable)
	return VerdictFromRatio(r), &r
}

// VerdictFromCounts is the count-based mapping: no violations pass, every
// applicable item violating fail, anything in between partial.
func VerdictFromCounts(violations, applicable int) model.Verdict {
	switch {
	case applicable <= 0:
		return model.VerdictNA
	case violations <= 0:
		return model.VerdictPass
	case violations >= applicable:
		return model.VerdictFail
	default:
		return model.VerdictPartial
	}
}

// VerdictFromDetails derives a verdict from well-known counters in d:
// na marker, applicable/violations, ok/applicable, ratio, then bare violations.
// The ratio is returned when one was computed.
func VerdictFromDetails(d model.Details) (model.Verdict, *float64) {
	if d.Bool(model.KeyNA) {
		return model.VerdictNA, nil
	}
	applicable, hasApplicable := d.Int(model.KeyApplicable)
	if violations, ok := d.Int(model.KeyViolations); ok && hasApplicable {
		return VerdictFromOK(applicable-violations, applicable)
	}
	if okCount, ok := d.Int(model.KeyOK); ok && hasApplicable {
		return VerdictFromOK(okCount, applicable)
	}
	if r, ok := d.Number(model.KeyRatio); ok {
		return VerdictFromRatio(r), &r
	}
	if violations, ok := d.Int(model.KeyViolations); ok {
		if violations == 0 {
			return model.VerdictPass, nil
		}
		return model.VerdictFail, nil
	}
	return model.VerdictNA, nil
}

// SubScore maps a verdict onto the 0..2 scale; na is neutral
func SubScore(v model.Verdict) int {
	switch v {
	case model.VerdictPass:
		return 2
	case model.VerdictPartial:
		return 1
	case model.VerdictFail:
		return 0
	default:
		return model.NeutralScore
	}
}
