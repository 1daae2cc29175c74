package model

import "time"

// Report is the page-level result of one audit run
type Report struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	FinalURL   string    `json:"final_url,omitempty"`
	Mode       Mode      `json:"mode"`   // Requested mode
	UseAI      bool      `json:"use_ai"` // AI opt-in for auto mode
	StartedAt  time.Time `json:"started_at"`
	StatusCode int       `json:"status_code"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	PageTitle  string    `json:"page_title"`
	Lang       string    `json:"lang,omitempty"`
	FetchMeta  FetchMeta `json:"fetch_meta"`

	Score          *float64               `json:"score"` // Null when nothing was scoreable
	WCAG           map[string]WCAGEntry   `json:"wcag"`
	Results        []Outcome              `json:"criterion_results"`
	ScoreBreakdown ScoreBreakdown         `json:"score_breakdown"`
	Formula        map[string]interface{} `json:"formula,omitempty"` // Transparent aggregation inputs

	RawCodes      []string `json:"raw_codes"`
	RenderedCodes []string `json:"rendered_codes"`
	AICodes       []string `json:"ai_codes"`
	ModeEffective Mode     `json:"mode_effective"`
	Skipped       []string `json:"skipped_codes,omitempty"` // Requested codes with no registered check
	RenderError   string   `json:"render_error,omitempty"`

	VerdictCounts   map[Verdict]int `json:"verdict_counts"`
	Recommendations Recommendations `json:"recommendations"`
}

// FetchMeta contains HTTP metadata from fetching the page
type FetchMeta struct {
	StatusCode    int    `json:"status_code"`
	ContentType   string `json:"content_type,omitempty"`
	ContentLength int    `json:"content_length"`
	FromCache     bool   `json:"from_cache,omitempty"`
	Attempts      int    `json:"attempts,omitempty"`
}

// WCAGEntry is the compact per-code view of an outcome
type WCAGEntry struct {
	Passed  bool    `json:"passed"`
	Status  Verdict `json:"status"`
	Score   int     `json:"score_0_2"`
	Source  Source  `json:"source"`
	Level   Level   `json:"level"`
	Details Details `json:"details"`
}

// LevelCount tallies scored outcomes for one conformance level
type LevelCount struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
}

// ScoreBreakdown is the per-level tally plus coverage figures.
// Coverage and BaseScore are nil when no outcome was scoreable.
type ScoreBreakdown struct {
	A         LevelCount `json:"A"`
	AA        LevelCount `json:"AA"`
	AAA       LevelCount `json:"AAA"`
	Coverage  *float64   `json:"_coverage,omitempty"`
	BaseScore *float64   `json:"_base_score,omitempty"`
}

// Level returns a pointer to the counter for lvl
func (b *ScoreBreakdown) Level(lvl Level) *LevelCount {
	switch lvl {
	case LevelAA:
		return &b.AA
	case LevelAAA:
		return &b.AAA
	default:
		return &b.A
	}
}

// Score is the aggregated, coverage-adjusted result
type Score struct {
	Value     *float64               `json:"value"`
	Base      *float64               `json:"base"`
	Coverage  *float64               `json:"coverage"`
	Breakdown ScoreBreakdown         `json:"breakdown"`
	Data      map[string]interface{} `json:"data,omitempty"` // Transparent formula and inputs
}

// Recommendations lists follow-up runs that could improve the audit
type Recommendations struct {
	ConsiderRenderedFor []string `json:"consider_rendered_for"`
	ConsiderAIFor       []string `json:"consider_ai_for"`
}
