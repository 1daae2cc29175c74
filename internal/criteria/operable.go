package criteria

import (
	"regexp"
	"strings"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
	"github.com/ppiankov/wcagscan/internal/score"
)

// BypassBlocks is 2.4.1: a skip link, a main landmark or headings let users
// jump past repeated blocks.
func BypassBlocks() check.Checker {
	return &rule{
		code:    "2.4.1",
		measure: measureBypass,
	}
}

func measureBypass(pc page.Context) model.Details {
	lm := pc.Landmarks()
	headings := len(visible(pc.Headings()))

	mechanisms := 0
	for _, ok := range []bool{lm.SkipLink, lm.Main, headings > 0} {
		if ok {
			mechanisms++
		}
	}
	violations := 0
	if mechanisms == 0 {
		violations = 1
	}
	d := counts(1, violations)
	d["skip_link"] = lm.SkipLink
	d["main_landmark"] = lm.Main
	d["nav_landmark"] = lm.Nav
	d["headings_total"] = headings
	d["mechanisms"] = mechanisms
	return d
}

var genericTitles = map[string]bool{
	"untitled": true, "untitled document": true, "home": true, "index": true, "document": true,
	"page": true, "new page": true, "welcome": true, "inicio": true, "sin título": true,
}

// PageTitled is 2.4.2. An empty title fails; a generic or very short one is partial.
func PageTitled() check.Checker {
	return &rule{
		code:    "2.4.2",
		measure: measureTitle,
		judge:   judgeTitle,
		ask: &question{
			prompt: "Propose a descriptive page title based on the content. " +
				`Reply as {"suggested_title": "", "manual_review": false}.`,
			when: func(d model.Details) bool { return !d.Bool("descriptive") },
		},
	}
}

func measureTitle(pc page.Context) model.Details {
	title := strings.TrimSpace(pc.Title())
	lower := strings.ToLower(title)
	generic := genericTitles[lower]
	d := model.Details{
		"title":        title,
		"title_length": len([]rune(title)),
		"generic":      generic,
		"descriptive":  title != "" && !generic && len([]rune(title)) >= 4,
	}
	return d
}

func judgeTitle(d model.Details) (model.Verdict, *float64) {
	var r float64
	switch {
	case d["title"] == "":
		r = 0
	case !d.Bool("descriptive"):
		r = 0.85
	default:
		r = 1
	}
	return verdictRatio(r)
}

var genericLinkText = map[string]bool{
	"click here": true, "here": true, "click": true, "read more": true, "more": true, "link": true,
	"learn more": true, "this": true, "continue": true, "details": true, "go": true, "...": true,
	"aquí": true, "clic aquí": true, "haz clic aquí": true, "leer más": true, "más": true, "ver más": true,
}

// LinkPurpose is 2.4.4: every link has a name and the name is not a generic phrase
func LinkPurpose() check.Checker {
	return &rule{
		code:    "2.4.4",
		measure: measureLinks,
		ask: &question{
			prompt: "For the links with an empty or generic name, suggest descriptive link text. " +
				`Reply as {"suggestions": [{"href": "", "text": ""}], "manual_review": false}.`,
			when: hasViolations,
		},
	}
}

func measureLinks(pc page.Context) model.Details {
	links := visible(pc.Anchors())
	empty, generic := 0, 0
	var offenders []map[string]any
	for _, a := range links {
		name := strings.ToLower(strings.Trim(strings.TrimSpace(a.Name), ".:!»›→ "))
		switch {
		case name == "":
			empty++
			offenders = appendOffender(offenders, a, "link without accessible name")
		case genericLinkText[name]:
			generic++
			offenders = appendOffender(offenders, a, "generic link text")
		}
	}
	d := counts(len(links), empty+generic)
	d["links_total"] = len(links)
	d["empty_names"] = empty
	d["generic_texts"] = generic
	d["offenders"] = offenders
	return d
}

var outlineNone = regexp.MustCompile(`(?is):focus[^{]*\{[^}]*outline\s*:\s*(none|0)\b`)

// FocusVisible is 2.4.7. Focus styling can only be observed in a rendered
// document; static markup just counts stylesheet rules that suppress the outline.
func FocusVisible() check.Checker {
	return &rule{
		code:     "2.4.7",
		measure:  measureFocusStatic,
		rendered: measureFocusProbe,
		ask: &question{
			prompt: "Suggest CSS focus styles for the elements whose focus is not visible. " +
				`Reply as {"css": "", "manual_review": false}.`,
			when: hasViolations,
		},
	}
}

func measureFocusStatic(pc page.Context) model.Details {
	focusable := len(visible(pc.Anchors())) + len(visible(pc.Buttons())) + len(visible(pc.Inputs()))
	d := model.Details{
		"tested":             0,
		"focusable":          focusable,
		"outline_none_rules": len(outlineNone.FindAllStringIndex(pc.HTML(), -1)),
		model.KeyNote:        "focus visibility requires a rendered document",
		model.KeyApplicable:  0,
		model.KeyViolations:  0,
	}
	return d
}

func measureFocusProbe(pc page.Context) model.Details {
	probe := pc.Probe()
	if probe == nil {
		return measureFocusStatic(pc)
	}
	invisible := 0
	var offenders []map[string]any
	for _, f := range probe.Focus {
		if !f.Visible {
			invisible++
			if len(offenders) < maxOffenders {
				offenders = append(offenders, map[string]any{"selector": f.Selector, "reason": "no visible focus change"})
			}
		}
	}
	d := counts(len(probe.Focus), invisible)
	d["tested"] = len(probe.Focus)
	d["not_visible"] = invisible
	d["offenders"] = offenders
	return d
}

// minTarget is the 2.5.5 minimum size in CSS pixels
const minTarget = 44.0

// TargetSize is 2.5.5: pointer targets are at least 44 by 44 CSS pixels,
// links inside sentences excepted.
func TargetSize() check.Checker {
	return &rule{
		code:     "2.5.5",
		measure:  func(page.Context) model.Details { return naDetails("target sizes require a rendered document") },
		rendered: measureTargets,
	}
}

func measureTargets(pc page.Context) model.Details {
	probe := pc.Probe()
	if probe == nil {
		return naDetails("target sizes require a rendered document")
	}
	tested, small, inline := 0, 0, 0
	var offenders []map[string]any
	for _, t := range probe.Targets {
		if t.Inline {
			inline++
			continue
		}
		tested++
		if t.Width < minTarget || t.Height < minTarget {
			small++
			if len(offenders) < maxOffenders {
				offenders = append(offenders, map[string]any{"selector": t.Selector, "width": t.Width, "height": t.Height})
			}
		}
	}
	d := counts(tested, small)
	d["tested"] = tested
	d["too_small"] = small
	d["inline_exempt"] = inline
	d["offenders"] = offenders
	return d
}

func verdictRatio(r float64) (model.Verdict, *float64) {
	return score.VerdictFromRatio(r), &r
}
