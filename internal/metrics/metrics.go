// Package metrics holds the Prometheus collectors of the CEP processor.
//
// Lookup metrics:
//   - cep_lookup_attempts_total (Counter): HTTP attempts sent to the lookup service
//   - cep_lookup_retries_total{reason} (Counter): attempts retried by failure reason
//   - cep_lookup_outcomes_total{outcome} (Counter): finalized CEPs (success, not_found, failed, cached)
//   - cep_lookup_duration_seconds (Histogram): duration of single HTTP attempts
//   - cep_lookups_in_flight (Gauge): lookups with an outstanding network call
//
// Run metrics:
//   - cep_runs_total{status} (Counter): finished runs
//   - cep_run_duration_seconds (Histogram): end-to-end run duration
//   - cep_sink_failures_total{sink} (Counter): persistence sink failures
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
	OutcomeCached   = "cached"
)

var (
	LookupAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cep_lookup_attempts_total",
		Help: "Total number of HTTP attempts sent to the lookup service",
	})

	LookupRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cep_lookup_retries_total",
		Help: "Total number of lookup attempts retried, by failure reason",
	}, []string{"reason"})

	LookupOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cep_lookup_outcomes_total",
		Help: "Total number of finalized CEP lookups by outcome",
	}, []string{"outcome"})

	LookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cep_lookup_duration_seconds",
		Help:    "Duration of single lookup attempts",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	LookupsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cep_lookups_in_flight",
		Help: "Lookups with an outstanding network call",
	})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cep_runs_total",
		Help: "Total number of processing runs by status",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cep_run_duration_seconds",
		Help:    "End-to-end duration of processing runs",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cep_sink_failures_total",
		Help: "Total number of persistence sink failures by sink",
	}, []string{"sink"})
)
