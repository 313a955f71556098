package services

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kermittech/cv-screener/internal/models"
)

func TestAggregate_Scenario(t *testing.T) {
	v := newTestValidator(t)

	rec, err := v.Validate(decodeFixture(t, janeRoeJSON), SchemaCV)
	require.NoError(t, err)

	out := Aggregate(rec)
	assert.Equal(t, 3.5, out.AverageScore)
	assert.Equal(t, "Jane Roe", out.Name)
	// The validated record itself is left untouched.
	assert.Zero(t, rec.Candidate.AverageScore)
}

func TestAggregate_RoundsToTwoDecimals(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		var a models.Analysis
		for _, key := range models.AnalysisKeys {
			a.Set(key, float64(rng.Intn(9)+1)/2)
		}

		out := Aggregate(&ValidatedRecord{Kind: SchemaCV, Candidate: &models.CandidateRecord{Analysis: a}})

		var sum float64
		for _, v := range a.Values() {
			sum += v
		}
		want := math.Round(sum/8*100) / 100
		assert.InDelta(t, want, out.AverageScore, 1e-9)
	}
}

func TestAggregate_RepeatingDecimal(t *testing.T) {
	a := models.Analysis{
		TechnicalExperience: 5, ProjectRelevance: 4, ExtraCurricular: 4, BusinessAcumen: 4,
		Communication: 4, Leadership: 4, Innovative: 4, CulturalFit: 2,
	}
	out := Aggregate(&ValidatedRecord{Kind: SchemaCV, Candidate: &models.CandidateRecord{Analysis: a}})
	assert.Equal(t, 3.88, out.AverageScore)
}

func TestAggregate_HugeScoresStayFinite(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, janeRoeJSON)
	analysis := m["analysis"].(map[string]any)
	analysis["technical_experience"] = 1e308
	analysis["leadership"] = 1e308

	rec, err := v.Validate(m, SchemaCV)
	require.NoError(t, err)
	assert.Contains(t, rec.Warnings, "analysis.technical_experience=1e+308 outside [1, 5]")
	for _, w := range rec.Warnings {
		assert.Less(t, len(w), 80, w)
	}

	out := Aggregate(rec)
	assert.False(t, math.IsInf(out.AverageScore, 0))
	assert.False(t, math.IsNaN(out.AverageScore))
	assert.InEpsilon(t, 2e308/8, out.AverageScore, 1e-9)

	_, err = json.Marshal(out)
	assert.NoError(t, err)
}

func TestAggregate_NegativeHugeScores(t *testing.T) {
	a := models.Analysis{TechnicalExperience: -1.5e308, Leadership: -1.5e308, CulturalFit: 5}
	out := Aggregate(&ValidatedRecord{Kind: SchemaCV, Candidate: &models.CandidateRecord{Analysis: a}})
	assert.False(t, math.IsInf(out.AverageScore, 0))
	assert.Less(t, out.AverageScore, 0.0)
}
