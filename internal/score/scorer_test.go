package score

import (
	"fmt"
	"math"
	"testing"

	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(code string, lvl model.Level, v model.Verdict) model.Outcome {
	o := model.Outcome{Code: code, Level: lvl, Verdict: v, Score: SubScore(v), Details: model.Details{}}
	if v == model.VerdictNA {
		o.Details[model.KeyNA] = true
	}
	return o
}

func TestScorer_Calculate_CoveragePenalty(t *testing.T) {
	s := NewScorer(DefaultConfig())
	outcomes := []model.Outcome{
		outcome("1.1.1", model.LevelA, model.VerdictPass),
		outcome("2.4.2", model.LevelA, model.VerdictFail),
		outcome("1.4.3", model.LevelAA, model.VerdictPass),
		outcome("2.4.7", model.LevelAA, model.VerdictNA),
	}

	result := s.Calculate(outcomes)

	require.NotNil(t, result.Value)
	// base = 2/3, coverage = 3/4
	assert.Equal(t, 0.6667, *result.Base)
	assert.Equal(t, 0.75, *result.Coverage)
	assert.Equal(t, 0.5, *result.Value)
	assert.Equal(t, model.LevelCount{Total: 2, Passed: 1}, result.Breakdown.A)
	assert.Equal(t, model.LevelCount{Total: 2, Passed: 1}, result.Breakdown.AA)
	assert.Equal(t, 0.75, *result.Breakdown.Coverage)
	assert.Equal(t, "base * coverage", result.Data["formula"])
}

func TestScorer_Calculate_NonStrictIgnoresCoverage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictCoverage = false
	s := NewScorer(cfg)

	result := s.Calculate([]model.Outcome{
		outcome("1.1.1", model.LevelA, model.VerdictPass),
		outcome("2.4.7", model.LevelAA, model.VerdictNA),
	})

	require.NotNil(t, result.Value)
	assert.Equal(t, 1.0, *result.Value)
	assert.Equal(t, 0.5, *result.Coverage)
}

func TestScorer_Calculate_AAAExcludedByDefault(t *testing.T) {
	outcomes := []model.Outcome{
		outcome("1.1.1", model.LevelA, model.VerdictPass),
		outcome("1.4.6", model.LevelAAA, model.VerdictFail),
	}

	def := NewScorer(DefaultConfig()).Calculate(outcomes)
	assert.Equal(t, 1.0, *def.Value)
	assert.Equal(t, model.LevelCount{}, def.Breakdown.AAA)
	assert.Equal(t, 1, def.Data["skipped_aaa"])

	cfg := DefaultConfig()
	cfg.IncludeAAA = true
	with := NewScorer(cfg).Calculate(outcomes)
	assert.Equal(t, 0.5, *with.Value)
	assert.Equal(t, model.LevelCount{Total: 1}, with.Breakdown.AAA)
}

func TestScorer_Calculate_AllNAHasNoScore(t *testing.T) {
	result := NewScorer(DefaultConfig()).Calculate([]model.Outcome{
		outcome("1.1.1", model.LevelA, model.VerdictNA),
		outcome("2.4.7", model.LevelAA, model.VerdictNA),
	})
	assert.Nil(t, result.Value)
	assert.Nil(t, result.Breakdown.Coverage)
	assert.Nil(t, result.Breakdown.BaseScore)
	assert.Equal(t, 1, result.Breakdown.A.Total)

	empty := NewScorer(DefaultConfig()).Calculate(nil)
	assert.Nil(t, empty.Value)
}

func TestScorer_Calculate_LevelWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LevelWeights = map[model.Level]float64{model.LevelA: 3.0} // AA falls back to 1.0
	result := NewScorer(cfg).Calculate([]model.Outcome{
		outcome("1.1.1", model.LevelA, model.VerdictPass),
		outcome("1.4.3", model.LevelAA, model.VerdictFail),
	})
	assert.Equal(t, 0.75, *result.Value)
}

func TestScorer_Calculate_PartialCountsAsNotPassed(t *testing.T) {
	result := NewScorer(DefaultConfig()).Calculate([]model.Outcome{
		outcome("1.1.1", model.LevelA, model.VerdictPartial),
		outcome("2.4.2", model.LevelA, model.VerdictPass),
	})
	assert.Equal(t, 0.5, *result.Value)
}

func TestScorer_Calculate_MissingLevelUsesMetadata(t *testing.T) {
	o := outcome("1.4.6", "", model.VerdictFail) // AAA per metadata
	result := NewScorer(DefaultConfig()).Calculate([]model.Outcome{o, outcome("1.1.1", model.LevelA, model.VerdictPass)})
	assert.Equal(t, 1.0, *result.Value)
}

// Adding an NA outcome never raises the score under strict coverage
// and leaves it unchanged otherwise.
func TestScorer_Calculate_CoverageMonotonicity(t *testing.T) {
	base := []model.Outcome{
		outcome("1.1.1", model.LevelA, model.VerdictPass),
		outcome("2.4.2", model.LevelA, model.VerdictFail),
		outcome("3.1.1", model.LevelA, model.VerdictPass),
	}
	withNA := append(append([]model.Outcome(nil), base...), outcome("2.4.7", model.LevelAA, model.VerdictNA))

	strict := NewScorer(DefaultConfig())
	assert.LessOrEqual(t, *strict.Calculate(withNA).Value, *strict.Calculate(base).Value)

	cfg := DefaultConfig()
	cfg.StrictCoverage = false
	lenient := NewScorer(cfg)
	assert.Equal(t, *lenient.Calculate(base).Value, *lenient.Calculate(withNA).Value)
}

func mixed(pass, fail, na int) []model.Outcome {
	var out []model.Outcome
	for i := 0; i < pass; i++ {
		out = append(out, outcome("1.1.1", model.LevelA, model.VerdictPass))
	}
	for i := 0; i < fail; i++ {
		out = append(out, outcome("2.4.2", model.LevelA, model.VerdictFail))
	}
	for i := 0; i < na; i++ {
		out = append(out, outcome("2.4.7", model.LevelA, model.VerdictNA))
	}
	return out
}

func TestScorer_Calculate_FinalRoundsExactProduct(t *testing.T) {
	s := NewScorer(DefaultConfig())

	tests := []struct {
		pass, fail, na int
		want           float64
	}{
		{1, 1, 1, 0.3333},
		{1, 1, 25, 0.037},
		{2, 1, 0, 0.6667},
	}
	for _, tt := range tests {
		got := s.Calculate(mixed(tt.pass, tt.fail, tt.na))
		require.NotNil(t, got.Value)
		assert.Equal(t, tt.want, *got.Value, "pass=%d fail=%d na=%d", tt.pass, tt.fail, tt.na)
	}

	for pass := 0; pass <= 12; pass++ {
		for fail := 0; fail <= 12; fail++ {
			if pass+fail == 0 {
				continue
			}
			for na := 0; na <= 12; na++ {
				scored := float64(pass + fail)
				exact := float64(pass) / scored * (scored / (scored + float64(na)))
				want := math.Round(exact*10000) / 10000
				got := s.Calculate(mixed(pass, fail, na))
				require.NotNil(t, got.Value)
				require.Equal(t, want, *got.Value, fmt.Sprintf("pass=%d fail=%d na=%d", pass, fail, na))
			}
		}
	}
}

func TestConfigFromModel(t *testing.T) {
	mc := model.DefaultConfig().Scoring
	mc.IncludeAAA = true
	c := ConfigFromModel(mc)
	assert.True(t, c.IncludeAAA)
	assert.True(t, c.StrictCoverage)
	assert.Equal(t, 1.0, c.LevelWeights[model.LevelAA])
}
