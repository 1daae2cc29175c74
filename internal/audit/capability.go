package audit

import (
	"sort"
	"strings"

	"github.com/ppiankov/wcagscan/internal/model"
)

// Capability describes which passes benefit a criterion
type Capability struct {
	RawOK          bool `json:"raw_ok" yaml:"raw_ok"`                   // Static markup gives a usable verdict
	NeedsRendered  bool `json:"needs_rendered" yaml:"needs_rendered"`   // Only a rendered DOM can decide
	RenderedBetter bool `json:"rendered_better" yaml:"rendered_better"` // Rendered DOM improves accuracy
	AIHelpful      bool `json:"ai_helpful" yaml:"ai_helpful"`           // AI adds suggestions or refinement
}

// WantsRendered reports whether auto mode should run a rendered pass
func (c Capability) WantsRendered() bool {
	return c.NeedsRendered || c.RenderedBetter
}

// Matrix is an immutable code -> capability table with wildcard prefix keys ("1.2.*")
type Matrix struct {
	exact    map[string]Capability
	prefixes []prefixEntry // longest prefix first
}

type prefixEntry struct {
	prefix string
	cap    Capability
}

// NewMatrix builds a matrix from entries; keys ending in ".*" match by prefix
func NewMatrix(entries map[string]Capability) *Matrix {
	m := &Matrix{exact: make(map[string]Capability, len(entries))}
	for key, c := range entries {
		if strings.HasSuffix(key, ".*") {
			m.prefixes = append(m.prefixes, prefixEntry{prefix: strings.TrimSuffix(key, "*"), cap: c})
			continue
		}
		m.exact[key] = c
	}
	sort.Slice(m.prefixes, func(i, j int) bool {
		if len(m.prefixes[i].prefix) != len(m.prefixes[j].prefix) {
			return len(m.prefixes[i].prefix) > len(m.prefixes[j].prefix)
		}
		return m.prefixes[i].prefix < m.prefixes[j].prefix
	})
	return m
}

// Lookup returns the capability for code: exact match, then the longest
// wildcard prefix, then a zero Capability.
func (m *Matrix) Lookup(code string) Capability {
	if c, ok := m.exact[code]; ok {
		return c
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(code, p.prefix) {
			return p.cap
		}
	}
	return Capability{}
}

// Entries returns a copy of the table keyed as it was built, sorted by code
func (m *Matrix) Entries() []MatrixEntry {
	out := make([]MatrixEntry, 0, len(m.exact)+len(m.prefixes))
	for code, c := range m.exact {
		out = append(out, MatrixEntry{Code: code, Capability: c})
	}
	for _, p := range m.prefixes {
		out = append(out, MatrixEntry{Code: p.prefix + "*", Capability: p.cap})
	}
	sort.Slice(out, func(i, j int) bool {
		return model.CompareCodes(out[i].Code, out[j].Code) < 0
	})
	return out
}

// MatrixEntry is one row of the matrix for listing
type MatrixEntry struct {
	Code string `json:"code"`
	Capability
}

var (
	rawOnly           = Capability{RawOK: true}
	rawAI             = Capability{RawOK: true, AIHelpful: true}
	rawRenderedBetter = Capability{RawOK: true, RenderedBetter: true}
	rawRenderedAI     = Capability{RawOK: true, RenderedBetter: true, AIHelpful: true}
	renderedOnly      = Capability{NeedsRendered: true}
)

// DefaultMatrix returns the built-in capability table
func DefaultMatrix() *Matrix {
	entries := map[string]Capability{
		// Media alternatives are judged from markup; AI helps review transcripts and captions
		"1.2.*": rawAI,

		"1.1.1":  rawAI,
		"1.3.1":  rawRenderedBetter,
		"1.3.5":  rawRenderedAI,
		"1.3.6":  rawRenderedAI,
		"1.4.3":  renderedOnly,
		"1.4.6":  renderedOnly,
		"1.4.10": renderedOnly,
		"1.4.11": renderedOnly,
		"2.1.1":  rawRenderedBetter,
		"2.2.1":  rawRenderedBetter,
		"2.4.3":  rawRenderedBetter,
		"2.4.7":  renderedOnly,
		"2.5.1":  rawRenderedBetter,
		"2.5.5":  renderedOnly,
		"3.2.1":  renderedOnly,
		"3.2.2":  renderedOnly,
		"3.3.1":  rawAI,
		"3.3.2":  rawAI,
		"3.3.3":  rawAI,
		"3.3.4":  rawAI,
		"3.3.5":  rawAI,
		"3.3.6":  rawAI,
		"4.1.2":  rawRenderedBetter,
		"4.1.3":  renderedOnly,
	}
	for _, code := range []string{
		"1.4.1", "1.4.2", "1.4.4", "1.4.5", "1.4.7", "1.4.8", "1.4.9", "1.4.12", "1.4.13",
		"2.1.2", "2.1.3", "2.1.4", "2.2.2", "2.2.3", "2.2.4", "2.2.5", "2.2.6",
		"2.3.1", "2.3.2", "2.3.3", "2.4.1", "2.4.2", "2.4.4", "2.4.5", "2.4.6",
		"2.4.8", "2.4.9", "2.4.10", "2.5.2", "2.5.3", "2.5.4", "2.5.6",
		"3.1.1", "3.1.2", "3.1.3", "3.1.4", "3.1.5", "3.1.6", "3.2.3", "3.2.4", "3.2.5",
		"4.1.1",
	} {
		entries[code] = rawOnly
	}
	return NewMatrix(entries)
}

// CriterionInfo describes one registered check for listings
type CriterionInfo struct {
	model.Criterion
	Capability Capability `json:"capability"`
}

// Criteria lists the registered checks in registration order with their
// WCAG metadata and capability row
func (e *Engine) Criteria() []CriterionInfo {
	codes := e.registry.Codes()
	out := make([]CriterionInfo, 0, len(codes))
	for _, code := range codes {
		out = append(out, CriterionInfo{
			Criterion:  model.LookupCriterion(code),
			Capability: e.opts.Matrix.Lookup(code),
		})
	}
	return out
}
