package services

import (
	"time"

	"github.com/nexconsult/cep-processor/internal/metrics"
	"github.com/nexconsult/cep-processor/internal/models"
)

// Aggregator accumulates the outcomes of one run. It is not safe for concurrent
// use; the scheduler calls Add sequentially after each wave.
type Aggregator struct {
	run   *models.Run
	now   func() time.Time
	begun bool
	done  bool
}

// NewAggregator creates an aggregator for a run of total CEPs
func NewAggregator(runID string, total int) *Aggregator {
	return &Aggregator{
		run: &models.Run{
			ID:      runID,
			Stats:   models.RunStats{Total: total},
			Results: make([]*models.LookupResult, 0, total),
			Errors:  make([]models.LookupError, 0),
		},
		now: time.Now,
	}
}

// Begin sets the start time once
func (a *Aggregator) Begin() {
	if a.begun {
		return
	}
	a.begun = true
	a.run.Stats.StartTime = a.now()
}

// Add records the final outcome of one CEP, incrementing exactly one counter
func (a *Aggregator) Add(outcome models.Outcome) {
	switch {
	case outcome.Result != nil:
		a.run.Results = append(a.run.Results, outcome.Result)
		a.run.Stats.Success++
		if outcome.Cached {
			metrics.LookupOutcomes.WithLabelValues(metrics.OutcomeCached).Inc()
		} else {
			metrics.LookupOutcomes.WithLabelValues(metrics.OutcomeSuccess).Inc()
		}
	case outcome.Err != nil:
		a.run.Errors = append(a.run.Errors, *outcome.Err)
		a.run.Stats.Errors++
		if outcome.Err.Error == MsgNotFound {
			metrics.LookupOutcomes.WithLabelValues(metrics.OutcomeNotFound).Inc()
		} else {
			metrics.LookupOutcomes.WithLabelValues(metrics.OutcomeFailed).Inc()
		}
	}
}

// Finish sets the end time once and returns the run
func (a *Aggregator) Finish() *models.Run {
	if !a.done {
		a.done = true
		if !a.begun {
			a.Begin()
		}
		a.run.Stats.EndTime = a.now()
	}
	return a.run
}

// Run returns the run being aggregated
func (a *Aggregator) Run() *models.Run {
	return a.run
}
