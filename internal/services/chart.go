package services

import (
	"fmt"
	"html"
	"math"
	"strings"
)

const (
	radarSize   = 360.0
	radarRadius = 120.0
	radarMax    = 5.0
	radarRings  = 5
)

// RadarChartSVG draws the sub-scores as a closed polygon on a 0-5 radar
// grid. labels and values must have the same length.
func RadarChartSVG(labels []string, values []float64) string {
	n := len(labels)
	if n == 0 || n != len(values) {
		return ""
	}

	center := radarSize / 2
	point := func(i int, v float64) (float64, float64) {
		angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		r := radarRadius * clamp(v, 0, radarMax) / radarMax
		return center + r*math.Cos(angle), center + r*math.Sin(angle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="radar" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		radarSize, radarSize, radarSize, radarSize)

	for ring := 1; ring <= radarRings; ring++ {
		b.WriteString(`<polygon fill="none" stroke="#d0d0d0" stroke-width="1" points="`)
		for i := 0; i < n; i++ {
			x, y := point(i, float64(ring))
			fmt.Fprintf(&b, "%.1f,%.1f ", x, y)
		}
		b.WriteString(`"/>`)
	}

	for i, label := range labels {
		x, y := point(i, radarMax)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#d0d0d0" stroke-width="1"/>`, center, center, x, y)
		lx, ly := point(i, radarMax+0.9)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="10" text-anchor="middle" fill="%s">%s</text>`,
			lx, ly, brandDark, html.EscapeString(chartLabel(label)))
	}

	fmt.Fprintf(&b, `<polygon fill="%s" fill-opacity="0.25" stroke="%s" stroke-width="2" points="`, brandPrimary, brandPrimary)
	for i, v := range values {
		x, y := point(i, v)
		fmt.Fprintf(&b, "%.1f,%.1f ", x, y)
	}
	b.WriteString(`"/>`)

	for i, v := range values {
		x, y := point(i, v)
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, x, y, brandAccent)
	}

	b.WriteString(`</svg>`)
	return b.String()
}

// chartLabel turns "technical_experience" into "Technical Experience".
func chartLabel(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
