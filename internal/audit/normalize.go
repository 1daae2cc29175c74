package audit

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wcagscan/internal/model"
)

// DefaultZeroSampleFields maps criterion codes to counters that, when all
// present and zero, mean nothing on the page could be tested.
var DefaultZeroSampleFields = map[string][]string{
	"1.1.1":  {"images_total"},
	"1.4.3":  {"tested_desktop", "tested_mobile"},
	"1.4.6":  {"tested_desktop", "tested_mobile"},
	"1.4.11": {"tested"},
	"2.4.7":  {"tested"},
}

// Normalizer forces not-applicable outcomes into a consistent shape
type Normalizer struct {
	zeroSample map[string][]string
}

// NewNormalizer creates a normalizer over the given zero-sample table
func NewNormalizer(zeroSample map[string][]string) *Normalizer {
	if zeroSample == nil {
		zeroSample = DefaultZeroSampleFields
	}
	return &Normalizer{zeroSample: zeroSample}
}

// Normalize returns o with NA conditions applied. It only ever moves an
// outcome to na, never away from it, and is idempotent.
func (n *Normalizer) Normalize(o model.Outcome) model.Outcome {
	if o.Details.Bool(model.KeyNA) || o.Verdict == model.VerdictNA {
		if o.Verdict == model.VerdictNA && o.Score == model.NeutralScore && o.Details.Bool(model.KeyNA) && o.ScoreHint == nil {
			return o
		}
		c := o.WithDetail(model.KeyNA, true)
		c.Verdict = model.VerdictNA
		c.Score = model.NeutralScore
		c.ScoreHint = nil
		return c
	}

	fields, ok := n.zeroSample[o.Code]
	if !ok || len(fields) == 0 {
		return o
	}
	for _, f := range fields {
		v, present := o.Details.Number(f)
		if !present || v != 0 {
			return o
		}
	}
	return o.MarkNA(fmt.Sprintf("no testable samples (%s = 0)", strings.Join(fields, ", ")))
}
