package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) SchemaValidator {
	t.Helper()
	v, err := NewSchemaValidator()
	require.NoError(t, err)
	return v
}

func requireViolation(t *testing.T, err error, reason ViolationReason, key string) {
	t.Helper()
	var violation *SchemaViolationError
	require.True(t, errors.As(err, &violation), "expected schema violation, got %v", err)
	assert.Equal(t, reason, violation.Reason)
	assert.Equal(t, key, violation.Key)
	assert.Equal(t, KindSchemaViolation, KindOf(err))
}

func TestValidate_CVScenario(t *testing.T) {
	v := newTestValidator(t)

	rec, err := v.Validate(decodeFixture(t, janeRoeJSON), SchemaCV)
	require.NoError(t, err)
	require.NotNil(t, rec.Candidate)
	assert.Nil(t, rec.Audio)

	c := rec.Candidate
	assert.Equal(t, "Jane Roe", c.Name)
	assert.Equal(t, "BSc", c.Education.Degree)
	assert.Equal(t, "X", c.Education.University)
	assert.Equal(t, "Analyst", c.Experience.LastTitle)
	assert.Equal(t, 70.0, c.Experience.ATSScore)
	assert.Equal(t, []float64{4, 3, 2, 3, 4, 3, 4, 5}, c.Analysis.Values())
	assert.Equal(t, []string{"Q1"}, c.InterviewQuestions)
	assert.Empty(t, rec.Warnings)
}

func TestValidate_MissingTopLevelKey(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, janeRoeJSON)
	delete(m, "interview_questions")

	_, err := v.Validate(m, SchemaCV)
	requireViolation(t, err, ViolationMissingKey, "interview_questions")
}

func TestValidate_MissingNestedKeys(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		parent string
		key    string
	}{
		{parent: "analysis", key: "leadership"},
		{parent: "education", key: "degree"},
		{parent: "experience", key: "ats_score"},
	}

	for _, tt := range tests {
		t.Run(tt.parent+"."+tt.key, func(t *testing.T) {
			m := decodeFixture(t, janeRoeJSON)
			delete(m[tt.parent].(map[string]any), tt.key)

			_, err := v.Validate(m, SchemaCV)
			requireViolation(t, err, ViolationMissingKey, tt.parent+"."+tt.key)
		})
	}
}

func TestValidate_NonNumericScore(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, janeRoeJSON)
	m["analysis"].(map[string]any)["communication"] = "high"

	_, err := v.Validate(m, SchemaCV)
	requireViolation(t, err, ViolationBadType, "analysis.communication")
}

func TestValidate_NumericStringsAreAccepted(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, janeRoeJSON)
	m["analysis"].(map[string]any)["communication"] = "4"
	m["experience"].(map[string]any)["ats_score"] = " 82.5 "

	rec, err := v.Validate(m, SchemaCV)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rec.Candidate.Analysis.Communication)
	assert.Equal(t, 82.5, rec.Candidate.Experience.ATSScore)
}

func TestValidate_NonFiniteStringsAreRejected(t *testing.T) {
	v := newTestValidator(t)

	for _, bad := range []any{"NaN", "Inf", "", true, nil, []any{4.0}} {
		m := decodeFixture(t, janeRoeJSON)
		m["analysis"].(map[string]any)["innovative"] = bad

		_, err := v.Validate(m, SchemaCV)
		requireViolation(t, err, ViolationBadType, "analysis.innovative")
	}
}

func TestValidate_OutOfRangeScoresAreWarnings(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, janeRoeJSON)
	m["analysis"].(map[string]any)["leadership"] = 7.0
	m["experience"].(map[string]any)["ats_score"] = 140.0

	rec, err := v.Validate(m, SchemaCV)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"analysis.leadership=7 outside [1, 5]",
		"experience.ats_score=140 outside [0, 100]",
	}, rec.Warnings)
	assert.Equal(t, rec.Warnings, rec.Candidate.Warnings)
	assert.Equal(t, 7.0, rec.Candidate.Analysis.Leadership)
}

func TestValidate_StringAndArrayShapes(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		key    string
	}{
		{
			name:   "name not a string",
			mutate: func(m map[string]any) { m["name"] = 12.0 },
			key:    "name",
		},
		{
			name:   "questions not an array",
			mutate: func(m map[string]any) { m["interview_questions"] = "Q1" },
			key:    "interview_questions",
		},
		{
			name:   "question not a string",
			mutate: func(m map[string]any) { m["interview_questions"] = []any{"Q1", 2.0} },
			key:    "interview_questions.1",
		},
		{
			name:   "degree not a string",
			mutate: func(m map[string]any) { m["education"].(map[string]any)["degree"] = nil },
			key:    "education.degree",
		},
		{
			name:   "education not an object",
			mutate: func(m map[string]any) { m["education"] = "BSc" },
			key:    "education",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decodeFixture(t, janeRoeJSON)
			tt.mutate(m)

			_, err := v.Validate(m, SchemaCV)
			requireViolation(t, err, ViolationBadType, tt.key)
		})
	}
}

func TestValidate_EmptyInterviewQuestions(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, janeRoeJSON)
	m["interview_questions"] = []any{}

	_, err := v.Validate(m, SchemaCV)
	requireViolation(t, err, ViolationEmptyValue, "interview_questions")
}

func TestValidate_ExtraAnalysisKeysAreIgnored(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, janeRoeJSON)
	m["analysis"].(map[string]any)["charisma"] = "off the charts"

	rec, err := v.Validate(m, SchemaCV)
	require.NoError(t, err)
	assert.Len(t, rec.Candidate.Analysis.Values(), 8)
}

func TestValidate_Audio(t *testing.T) {
	v := newTestValidator(t)

	rec, err := v.Validate(decodeFixture(t, audioJSON), SchemaAudio)
	require.NoError(t, err)
	require.NotNil(t, rec.Audio)
	assert.Nil(t, rec.Candidate)
	assert.Equal(t, []float64{4, 3, 5, 2}, rec.Audio.Analysis.Values())
	assert.Empty(t, rec.Audio.RedFlags)
	assert.Equal(t, "Clear and confident.", rec.Audio.Summary)
}

func TestValidate_AudioViolations(t *testing.T) {
	v := newTestValidator(t)

	m := decodeFixture(t, audioJSON)
	delete(m, "red_flags")
	_, err := v.Validate(m, SchemaAudio)
	requireViolation(t, err, ViolationMissingKey, "red_flags")

	m = decodeFixture(t, audioJSON)
	delete(m["analysis"].(map[string]any), "confidence")
	_, err = v.Validate(m, SchemaAudio)
	requireViolation(t, err, ViolationMissingKey, "analysis.confidence")

	m = decodeFixture(t, audioJSON)
	m["analysis"].(map[string]any)["technical_depth"] = "deep"
	_, err = v.Validate(m, SchemaAudio)
	requireViolation(t, err, ViolationBadType, "analysis.technical_depth")
}

func TestValidate_CVMappingAgainstAudioSchema(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(decodeFixture(t, janeRoeJSON), SchemaAudio)
	requireViolation(t, err, ViolationMissingKey, "red_flags")
}
