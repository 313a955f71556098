package services

import (
	"math"

	"kermittech/cv-screener/internal/models"
)

// Aggregate derives average_score from the eight typed analysis sub-scores
// and returns the final candidate record. Extra analysis keys the model may
// have produced never reach the typed record and so are never averaged.
func Aggregate(rec *ValidatedRecord) models.CandidateRecord {
	out := *rec.Candidate
	out.AverageScore = averageScore(out.Analysis.Values())
	return out
}

// averageScore never overflows for finite inputs: when the plain sum does,
// the mean is taken as a sum of quotients instead.
func averageScore(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if math.IsInf(sum, 0) {
		mean = 0
		for _, v := range values {
			mean += v / n
		}
	}

	scaled := mean * 100
	if math.IsInf(scaled, 0) {
		return mean
	}
	return math.Round(scaled) / 100
}
