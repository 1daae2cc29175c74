package criteria

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
)

// LanguageOfPage is 3.1.1: <html lang> is present and a valid BCP 47 tag
func LanguageOfPage() check.Checker {
	return &rule{
		code:    "3.1.1",
		measure: measureLang,
		ask: &question{
			prompt: "Identify the main language of the page text and the lang attribute it should declare. " +
				`Reply as {"detected_language": "", "suggested_lang": "", "manual_review": false}.`,
			when: hasViolations,
		},
	}
}

func measureLang(pc page.Context) model.Details {
	lang := strings.TrimSpace(pc.Lang())
	d := counts(1, 0)
	d["lang"] = lang

	if lang == "" {
		d[model.KeyViolations] = 1
		d["reason"] = "missing lang attribute"
		return d
	}
	tag, err := language.Parse(lang)
	if err != nil {
		d[model.KeyViolations] = 1
		d["reason"] = "invalid language tag"
		return d
	}
	base, _ := tag.Base()
	d["lang_normalized"] = tag.String()
	d["base_language"] = base.String()
	return d
}

// LabelsOrInstructions is 3.3.2: input fields carry a visible label or an
// explicit accessible label. A placeholder alone does not count.
func LabelsOrInstructions() check.Checker {
	return &rule{
		code:    "3.3.2",
		measure: measureLabels,
		ask: &question{
			prompt: "Suggest visible labels or instructions for the unlabelled form fields. " +
				`Reply as {"suggestions": [{"field": "", "label": ""}], "manual_review": false}.`,
			when: hasViolations,
		},
	}
}

func measureLabels(pc page.Context) model.Details {
	controls := labelableControls(pc)
	labelled, placeholderOnly, unlabelled := 0, 0, 0
	var offenders []map[string]any

	for _, in := range controls {
		switch {
		case in.Label != "" || in.AttrValue("aria-label") != "" || in.AttrValue("aria-labelledby") != "" || in.AttrValue("title") != "":
			labelled++
		case in.AttrValue("placeholder") != "":
			placeholderOnly++
			offenders = appendOffender(offenders, in, "placeholder used as the only label")
		default:
			unlabelled++
			offenders = appendOffender(offenders, in, "no label or instructions")
		}
	}

	d := model.Details{
		model.KeyApplicable: len(controls),
		model.KeyOK:         labelled,
		"controls_total":    len(controls),
		"labelled":          labelled,
		"placeholder_only":  placeholderOnly,
		"unlabelled":        unlabelled,
		"offenders":         offenders,
	}
	return d
}
