package services

import (
	"testing"
	"time"

	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorCountsEachOutcomeOnce(t *testing.T) {
	agg := NewAggregator("run-1", 4)
	agg.Begin()

	agg.Add(models.Outcome{CEP: "01310100", Result: models.NewLookupResult("01310100", nil), Attempts: 2})
	agg.Add(models.Outcome{CEP: "20040020", Result: models.NewLookupResult("20040020", nil), Cached: true})
	agg.Add(models.Outcome{CEP: "00000000", Err: newLookupError("00000000", MsgNotFound), Attempts: 1})
	agg.Add(models.Outcome{CEP: "99999999", Err: newLookupError("99999999", "HTTP 503"), Attempts: 2})

	run := agg.Finish()

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 4, run.Stats.Total)
	assert.Equal(t, 2, run.Stats.Success)
	assert.Equal(t, 2, run.Stats.Errors)
	assert.Equal(t, run.Stats.Total, run.Stats.Success+run.Stats.Errors)
	assert.Len(t, run.Results, run.Stats.Success)
	assert.Len(t, run.Errors, run.Stats.Errors)
	assert.Equal(t, "HTTP 503", run.Errors[1].Error)
}

func TestAggregatorTimestampsAreSetOnce(t *testing.T) {
	clock := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	agg := NewAggregator("run-2", 0)
	agg.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	agg.Begin()
	agg.Begin()
	first := agg.Finish()
	second := agg.Finish()

	require.Same(t, first, second)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 1, 0, time.UTC), first.Stats.StartTime)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 2, 0, time.UTC), first.Stats.EndTime)
	assert.False(t, first.Stats.EndTime.Before(first.Stats.StartTime))
}

func TestAggregatorFinishWithoutBegin(t *testing.T) {
	run := NewAggregator("run-3", 0).Finish()

	assert.False(t, run.Stats.StartTime.IsZero())
	assert.False(t, run.Stats.EndTime.Before(run.Stats.StartTime))
	assert.Zero(t, run.Stats.Throughput())
	assert.Empty(t, run.Results)
	assert.Empty(t, run.Errors)
}
