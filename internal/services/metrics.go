package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the screening counters. Each instance owns its registry so
// tests and multiple pipelines never collide.
type Metrics struct {
	Registry      *prometheus.Registry
	Screenings    *prometheus.CounterVec
	StageFailures *prometheus.CounterVec
	ModelCall     prometheus.Histogram
	ModelRetries  prometheus.Counter
	CacheHits     prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Screenings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvscreen_screenings_total",
				Help: "Total number of documents screened, by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		StageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvscreen_stage_failures_total",
				Help: "Total number of pipeline failures, by stage and error kind",
			},
			[]string{"stage", "error_kind"},
		),
		ModelCall: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cvscreen_model_call_seconds",
				Help:    "Duration of generation endpoint calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		ModelRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cvscreen_model_retries_total",
				Help: "Total number of generation retries after endpoint failures",
			},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cvscreen_cache_hits_total",
				Help: "Total number of records served from the result cache",
			},
		),
	}
}
