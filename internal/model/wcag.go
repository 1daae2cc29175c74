package model

import (
	"sort"
	"strconv"
	"strings"
)

// Level is a WCAG conformance level
type Level string

const (
	LevelA   Level = "A"
	LevelAA  Level = "AA"
	LevelAAA Level = "AAA"
)

// Levels lists the conformance levels in ascending strictness
var Levels = []Level{LevelA, LevelAA, LevelAAA}

// Principles by leading code digit
const (
	PrinciplePerceivable    = "Perceivable"
	PrincipleOperable       = "Operable"
	PrincipleUnderstandable = "Understandable"
	PrincipleRobust         = "Robust"
)

// Criterion is the static WCAG metadata for one success criterion
type Criterion struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Level     Level  `json:"level"`
	Principle string `json:"principle"`
}

// WCAGMeta holds WCAG 2.1 success criteria keyed by code
var WCAGMeta = buildMeta([]Criterion{
	{"1.1.1", "Non-text Content", LevelA, ""},
	{"1.2.1", "Audio-only and Video-only (Prerecorded)", LevelA, ""},
	{"1.2.2", "Captions (Prerecorded)", LevelA, ""},
	{"1.2.3", "Audio Description or Media Alternative (Prerecorded)", LevelA, ""},
	{"1.2.4", "Captions (Live)", LevelAA, ""},
	{"1.2.5", "Audio Description (Prerecorded)", LevelAA, ""},
	{"1.2.6", "Sign Language (Prerecorded)", LevelAAA, ""},
	{"1.2.7", "Extended Audio Description (Prerecorded)", LevelAAA, ""},
	{"1.2.8", "Media Alternative (Prerecorded)", LevelAAA, ""},
	{"1.2.9", "Audio-only (Live)", LevelAAA, ""},
	{"1.3.1", "Info and Relationships", LevelA, ""},
	{"1.3.2", "Meaningful Sequence", LevelA, ""},
	{"1.3.3", "Sensory Characteristics", LevelA, ""},
	{"1.3.4", "Orientation", LevelAA, ""},
	{"1.3.5", "Identify Input Purpose", LevelAA, ""},
	{"1.3.6", "Identify Purpose", LevelAAA, ""},
	{"1.4.1", "Use of Color", LevelA, ""},
	{"1.4.2", "Audio Control", LevelA, ""},
	{"1.4.3", "Contrast (Minimum)", LevelAA, ""},
	{"1.4.4", "Resize Text", LevelAA, ""},
	{"1.4.5", "Images of Text", LevelAA, ""},
	{"1.4.6", "Contrast (Enhanced)", LevelAAA, ""},
	{"1.4.7", "Low or No Background Audio", LevelAAA, ""},
	{"1.4.8", "Visual Presentation", LevelAAA, ""},
	{"1.4.9", "Images of Text (No Exception)", LevelAAA, ""},
	{"1.4.10", "Reflow", LevelAA, ""},
	{"1.4.11", "Non-text Contrast", LevelAA, ""},
	{"1.4.12", "Text Spacing", LevelAA, ""},
	{"1.4.13", "Content on Hover or Focus", LevelAA, ""},
	{"2.1.1", "Keyboard", LevelA, ""},
	{"2.1.2", "No Keyboard Trap", LevelA, ""},
	{"2.1.3", "Keyboard (No Exception)", LevelAAA, ""},
	{"2.1.4", "Character Key Shortcuts", LevelA, ""},
	{"2.2.1", "Timing Adjustable", LevelA, ""},
	{"2.2.2", "Pause, Stop, Hide", LevelA, ""},
	{"2.2.3", "No Timing", LevelAAA, ""},
	{"2.2.4", "Interruptions", LevelAAA, ""},
	{"2.2.5", "Re-authenticating", LevelAAA, ""},
	{"2.2.6", "Timeouts", LevelAAA, ""},
	{"2.3.1", "Three Flashes or Below Threshold", LevelA, ""},
	{"2.3.2", "Three Flashes", LevelAAA, ""},
	{"2.3.3", "Animation from Interactions", LevelAAA, ""},
	{"2.4.1", "Bypass Blocks", LevelA, ""},
	{"2.4.2", "Page Titled", LevelA, ""},
	{"2.4.3", "Focus Order", LevelA, ""},
	{"2.4.4", "Link Purpose (In Context)", LevelA, ""},
	{"2.4.5", "Multiple Ways", LevelAA, ""},
	{"2.4.6", "Headings and Labels", LevelAA, ""},
	{"2.4.7", "Focus Visible", LevelAA, ""},
	{"2.4.8", "Location", LevelAAA, ""},
	{"2.4.9", "Link Purpose (Link Only)", LevelAAA, ""},
	{"2.4.10", "Section Headings", LevelAAA, ""},
	{"2.5.1", "Pointer Gestures", LevelA, ""},
	{"2.5.2", "Pointer Cancellation", LevelA, ""},
	{"2.5.3", "Label in Name", LevelA, ""},
	{"2.5.4", "Motion Actuation", LevelA, ""},
	{"2.5.5", "Target Size", LevelAAA, ""},
	{"2.5.6", "Concurrent Input Mechanisms", LevelAAA, ""},
	{"3.1.1", "Language of Page", LevelA, ""},
	{"3.1.2", "Language of Parts", LevelAA, ""},
	{"3.1.3", "Unusual Words", LevelAAA, ""},
	{"3.1.4", "Abbreviations", LevelAAA, ""},
	{"3.1.5", "Reading Level", LevelAAA, ""},
	{"3.1.6", "Pronunciation", LevelAAA, ""},
	{"3.2.1", "On Focus", LevelA, ""},
	{"3.2.2", "On Input", LevelA, ""},
	{"3.2.3", "Consistent Navigation", LevelAA, ""},
	{"3.2.4", "Consistent Identification", LevelAA, ""},
	{"3.2.5", "Change on Request", LevelAAA, ""},
	{"3.3.1", "Error Identification", LevelA, ""},
	{"3.3.2", "Labels or Instructions", LevelA, ""},
	{"3.3.3", "Error Suggestion", LevelAA, ""},
	{"3.3.4", "Error Prevention (Legal, Financial, Data)", LevelAA, ""},
	{"3.3.5", "Help", LevelAAA, ""},
	{"3.3.6", "Error Prevention (All)", LevelAAA, ""},
	{"4.1.1", "Parsing", LevelA, ""},
	{"4.1.2", "Name, Role, Value", LevelA, ""},
	{"4.1.3", "Status Messages", LevelAA, ""},
})

func buildMeta(list []Criterion) map[string]Criterion {
	m := make(map[string]Criterion, len(list))
	for _, c := range list {
		c.Principle = PrincipleFor(c.Code)
		m[c.Code] = c
	}
	return m
}

// PrincipleFor derives the WCAG principle from the leading digit of code
func PrincipleFor(code string) string {
	switch {
	case strings.HasPrefix(code, "1."):
		return PrinciplePerceivable
	case strings.HasPrefix(code, "2."):
		return PrincipleOperable
	case strings.HasPrefix(code, "3."):
		return PrincipleUnderstandable
	case strings.HasPrefix(code, "4."):
		return PrincipleRobust
	default:
		return ""
	}
}

// LookupCriterion returns metadata for code; unknown codes default to level A
func LookupCriterion(code string) Criterion {
	if c, ok := WCAGMeta[code]; ok {
		return c
	}
	return Criterion{Code: code, Level: LevelA, Principle: PrincipleFor(code)}
}

// SortCodes sorts WCAG codes numerically component by component ("1.4.10" after "1.4.9")
func SortCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		return CompareCodes(codes[i], codes[j]) < 0
	})
}

// CompareCodes compares two dotted WCAG codes numerically
func CompareCodes(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		if errA != nil || errB != nil {
			if c := strings.Compare(pa[i], pb[i]); c != 0 {
				return c
			}
			continue
		}
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	}
	return len(pa) - len(pb)
}
