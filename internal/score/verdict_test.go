package score

import (
	"testing"

	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictFromRatio_Thresholds(t *testing.T) {
	tests := []struct {
		ratio float64
		want  model.Verdict
	}{
		{1.0, model.VerdictPass},
		{0.999, model.VerdictPass},
		{0.998, model.VerdictPartial},
		{0.8, model.VerdictPartial},
		{0.799999, model.VerdictFail},
		{0.7, model.VerdictFail},
		{0, model.VerdictFail},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerdictFromRatio(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestVerdictFromOK(t *testing.T) {
	v, r := VerdictFromOK(0, 0)
	assert.Equal(t, model.VerdictNA, v)
	assert.Nil(t, r)

	v, r = VerdictFromOK(7, 10)
	assert.Equal(t, model.VerdictFail, v)
	require.NotNil(t, r)
	assert.InDelta(t, 0.7, *r, 1e-9)

	v, _ = VerdictFromOK(12, 10)
	assert.Equal(t, model.VerdictPass, v, "ok is clamped to applicable")
}

func TestVerdictFromCounts(t *testing.T) {
	assert.Equal(t, model.VerdictNA, VerdictFromCounts(0, 0))
	assert.Equal(t, model.VerdictPass, VerdictFromCounts(0, 5))
	assert.Equal(t, model.VerdictPartial, VerdictFromCounts(2, 5))
	assert.Equal(t, model.VerdictFail, VerdictFromCounts(5, 5))
}

func TestVerdictFromDetails(t *testing.T) {
	tests := []struct {
		name    string
		details model.Details
		want    model.Verdict
	}{
		{"na marker wins", model.Details{"na": true, "applicable": 3, "violations": 0}, model.VerdictNA},
		{"three of ten violate", model.Details{"applicable": 10, "violations": 3}, model.VerdictFail},
		{"all compliant", model.Details{"applicable": 4, "violations": 0}, model.VerdictPass},
		{"one of ten violates", model.Details{"applicable": 10, "violations": 1}, model.VerdictPartial},
		{"ok counter", model.Details{"applicable": 5, "ok": 5}, model.VerdictPass},
		{"json floats", model.Details{"applicable": 10.0, "violations": 0.0}, model.VerdictPass},
		{"ratio only", model.Details{"ratio": 0.85}, model.VerdictPartial},
		{"bare violations", model.Details{"violations": 2}, model.VerdictFail},
		{"bare zero violations", model.Details{"violations": 0}, model.VerdictPass},
		{"nothing measured", model.Details{}, model.VerdictNA},
		{"nothing applicable", model.Details{"applicable": 0, "violations": 0}, model.VerdictNA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := VerdictFromDetails(tt.details)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubScore(t *testing.T) {
	assert.Equal(t, 2, SubScore(model.VerdictPass))
	assert.Equal(t, 1, SubScore(model.VerdictPartial))
	assert.Equal(t, 0, SubScore(model.VerdictFail))
	assert.Equal(t, model.NeutralScore, SubScore(model.VerdictNA))
}
