package criteria

import (
	"context"
	"sort"
	"strings"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
)

// idRefAttrs are attributes whose value lists element ids
var idRefAttrs = []string{"aria-labelledby", "aria-describedby", "aria-controls", "aria-owns", "headers", "for"}

// parsingCheck is 4.1.1. It predates evaluation modes and only understands
// static markup, so Evaluate always reports ErrModeUnsupported.
type parsingCheck struct{}

// Parsing returns the 4.1.1 check
func Parsing() check.Checker {
	return parsingCheck{}
}

func (parsingCheck) Code() string { return "4.1.1" }

func (parsingCheck) Evaluate(context.Context, check.Input) (model.Outcome, error) {
	return model.Outcome{}, check.ErrModeUnsupported
}

// EvaluateLegacy counts duplicate ids and id references that point nowhere
func (parsingCheck) EvaluateLegacy(static page.Context) (model.Outcome, error) {
	ids := static.IDCounts()

	var duplicates []string
	for id, n := range ids {
		if n > 1 {
			duplicates = append(duplicates, id)
		}
	}
	sort.Strings(duplicates)

	refs, broken := 0, 0
	var brokenRefs []string
	for _, group := range [][]page.Element{static.Images(), static.Anchors(), static.Inputs(), static.Buttons(), static.Media(), static.Iframes()} {
		for _, el := range group {
			for _, attr := range idRefAttrs {
				for _, id := range strings.Fields(el.AttrValue(attr)) {
					refs++
					if ids[id] == 0 {
						broken++
						if len(brokenRefs) < maxOffenders {
							brokenRefs = append(brokenRefs, attr+"="+id)
						}
					}
				}
			}
		}
	}

	applicable := len(ids) + refs
	d := counts(applicable, len(duplicates)+broken)
	d["ids_total"] = len(ids)
	d["duplicate_ids"] = len(duplicates)
	d["references"] = refs
	d["broken_references"] = broken
	if len(duplicates) > maxOffenders {
		duplicates = duplicates[:maxOffenders]
	}
	d["duplicate_samples"] = duplicates
	d["broken_samples"] = brokenRefs

	return (&rule{code: "4.1.1"}).outcome(d), nil
}

// NameRoleValue is 4.1.2: interactive components expose an accessible name
func NameRoleValue() check.Checker {
	return &rule{
		code:    "4.1.2",
		measure: measureNames,
		ask: &question{
			prompt: "Suggest accessible names (aria-label or visible text) for the unnamed controls. " +
				`Reply as {"suggestions": [{"element": "", "name": ""}], "manual_review": false}.`,
			when: hasViolations,
		},
	}
}

func measureNames(pc page.Context) model.Details {
	applicable, unnamed := 0, 0
	perKind := map[string]int{}
	var offenders []map[string]any

	tally := func(els []page.Element, kind string, name func(page.Element) string) {
		for _, el := range visible(els) {
			applicable++
			if strings.TrimSpace(name(el)) == "" {
				unnamed++
				perKind[kind]++
				offenders = appendOffender(offenders, el, kind+" without accessible name")
			}
		}
	}
	byName := func(el page.Element) string { return el.Name }

	tally(pc.Buttons(), "button", byName)
	tally(labelableControls(pc), "form control", byName)
	tally(pc.Iframes(), "iframe", func(el page.Element) string {
		if t := el.AttrValue("title"); t != "" {
			return t
		}
		return el.AttrValue("aria-label")
	})

	d := counts(applicable, unnamed)
	d["unnamed"] = unnamed
	d["unnamed_by_kind"] = perKind
	d["offenders"] = offenders
	return d
}

var _ check.LegacyChecker = parsingCheck{}
