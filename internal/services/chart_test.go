package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kermittech/cv-screener/internal/models"
)

func TestRadarChartSVG(t *testing.T) {
	values := []float64{4, 3, 2, 3, 4, 3, 4, 5}
	svg := RadarChartSVG(models.AnalysisKeys, values)

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "Technical Experience")
	assert.Contains(t, svg, "Cultural Fit")
	assert.Equal(t, len(values), strings.Count(svg, "<circle"))
	// five grid rings plus the score polygon
	assert.Equal(t, radarRings+1, strings.Count(svg, "<polygon"))
}

func TestRadarChartSVG_MismatchedInput(t *testing.T) {
	assert.Empty(t, RadarChartSVG(nil, nil))
	assert.Empty(t, RadarChartSVG([]string{"a", "b"}, []float64{1}))
}

func TestRadarChartSVG_ClampsOutOfRange(t *testing.T) {
	over := RadarChartSVG([]string{"a", "b", "c"}, []float64{7, 7, 7})
	capped := RadarChartSVG([]string{"a", "b", "c"}, []float64{5, 5, 5})
	assert.Equal(t, capped, over)
}

func TestChartLabel(t *testing.T) {
	assert.Equal(t, "Technical Experience", chartLabel("technical_experience"))
	assert.Equal(t, "Innovative", chartLabel("innovative"))
	assert.Equal(t, "Keyword Usage", chartLabel("keyword_usage"))
}
