package criteria

import "github.com/ppiankov/wcagscan/internal/check"

// All returns every shipped check in WCAG order
func All() []check.Checker {
	return []check.Checker{
		NonTextContent(),
		CaptionsPrerecorded(),
		InfoAndRelationships(),
		IdentifyInputPurpose(),
		ContrastMinimum(),
		ResizeText(),
		Reflow(),
		BypassBlocks(),
		PageTitled(),
		LinkPurpose(),
		FocusVisible(),
		TargetSize(),
		LanguageOfPage(),
		LabelsOrInstructions(),
		Parsing(),
		NameRoleValue(),
	}
}

// DefaultRegistry registers All in order
func DefaultRegistry() *check.Registry {
	return check.NewRegistry().MustRegister(All()...)
}
