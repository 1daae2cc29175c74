package score

import (
	"math"

	"github.com/ppiankov/wcagscan/internal/model"
)

// Config controls how outcomes are aggregated
type Config struct {
	IncludeAAA     bool                    // Score AAA criteria too
	StrictCoverage bool                    // Multiply the base score by coverage
	LevelWeights   map[model.Level]float64 // Missing levels weigh 1.0
}

// DefaultConfig excludes AAA and applies the coverage penalty
func DefaultConfig() Config {
	return Config{
		IncludeAAA:     false,
		StrictCoverage: true,
		LevelWeights: map[model.Level]float64{
			model.LevelA:   1.0,
			model.LevelAA:  1.0,
			model.LevelAAA: 1.0,
		},
	}
}

// ConfigFromModel converts the scoring section of the application config
func ConfigFromModel(cfg model.ScoringConfig) Config {
	c := Config{
		IncludeAAA:     cfg.IncludeAAA,
		StrictCoverage: cfg.StrictCoverage,
		LevelWeights:   make(map[model.Level]float64, len(cfg.LevelWeights)),
	}
	for lvl, w := range cfg.LevelWeights {
		c.LevelWeights[lvl] = w
	}
	return c
}

// Scorer aggregates criterion outcomes into one coverage-adjusted score
type Scorer struct {
	cfg Config
}

// NewScorer creates a new scorer
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

func (s *Scorer) weight(lvl model.Level) float64 {
	if w, ok := s.cfg.LevelWeights[lvl]; ok {
		return w
	}
	return 1.0
}

// Calculate aggregates outcomes. NA outcomes widen the coverage denominator
// only; AAA outcomes are skipped entirely unless configured.
func (s *Scorer) Calculate(outcomes []model.Outcome) model.Score {
	var (
		breakdown      model.ScoreBreakdown
		acc            float64
		totalWeight    float64
		totalWeightAll float64
		scored         int
		skippedAAA     int
		naCount        int
	)

	for _, o := range outcomes {
		lvl := o.Level
		if lvl == "" {
			lvl = model.LookupCriterion(o.Code).Level
		}
		if lvl == model.LevelAAA && !s.cfg.IncludeAAA {
			skippedAAA++
			continue
		}

		w := s.weight(lvl)
		counts := breakdown.Level(lvl)
		counts.Total++

		// 1. NA contributes to the coverage denominator only
		if o.IsNA() {
			totalWeightAll += w
			naCount++
			continue
		}

		// 2. Scored outcomes contribute to both denominators
		totalWeight += w
		totalWeightAll += w
		scored++
		if o.Passed() {
			counts.Passed++
			acc += w
		}
	}

	result := model.Score{Breakdown: breakdown}
	data := map[string]interface{}{
		"acc":              round4(acc),
		"total_weight":     round4(totalWeight),
		"total_weight_all": round4(totalWeightAll),
		"scored":           scored,
		"na":               naCount,
		"skipped_aaa":      skippedAAA,
		"strict_coverage":  s.cfg.StrictCoverage,
		"formula_base":     "acc / total_weight",
		"formula_coverage": "total_weight / total_weight_all",
	}

	// 3. Nothing scoreable: no score
	if totalWeight == 0 {
		data["formula"] = "null (no scoreable criteria)"
		result.Data = data
		return result
	}

	// Round only what is stored; final is the product of the exact ratios
	rawBase := acc / totalWeight
	rawCoverage := 1.0
	if totalWeightAll > 0 {
		rawCoverage = totalWeight / totalWeightAll
	}
	base := round4(rawBase)
	coverage := round4(rawCoverage)

	final := base
	data["formula"] = "base"
	if s.cfg.StrictCoverage {
		final = round4(rawBase * rawCoverage)
		data["formula"] = "base * coverage"
	}

	result.Value = &final
	result.Base = &base
	result.Coverage = &coverage
	result.Breakdown.BaseScore = &base
	result.Breakdown.Coverage = &coverage
	result.Data = data
	return result
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
