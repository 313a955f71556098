package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const janeRoeJSON = `{"name":"Jane Roe","education":{"degree":"BSc","university":"X"},"experience":{"last_title":"Analyst","ats_score":70},"analysis":{"technical_experience":4,"project_relevance":3,"extra_curricular":2,"business_acumen":3,"communication":4,"leadership":3,"innovative":4,"cultural_fit":5},"summary":"...","interview_questions":["Q1"]}`

const audioJSON = `{"analysis":{"communication_score":4,"technical_depth":3,"confidence":5,"keyword_usage":2},"red_flags":[],"summary":"Clear and confident."}`

func decodeFixture(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

// envelope wraps text the way the local generation endpoint does.
func envelope(t *testing.T, text string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"model": "granite3.3", "response": text, "done": true})
	require.NoError(t, err)
	return string(b)
}
