package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexconsult/cep-processor/internal/logger"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLookup records parallelism and answers every CEP after a short delay
type stubLookup struct {
	delay    time.Duration
	fail     map[string]bool
	inFlight int32
	maxSeen  int32
	calls    sync.Map
}

func (s *stubLookup) Fetch(ctx context.Context, cep string) models.Outcome {
	current := atomic.AddInt32(&s.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&s.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&s.maxSeen, seen, current) {
			break
		}
	}
	defer atomic.AddInt32(&s.inFlight, -1)

	count, _ := s.calls.LoadOrStore(cep, new(int32))
	atomic.AddInt32(count.(*int32), 1)

	time.Sleep(s.delay)

	if s.fail[cep] {
		return models.Outcome{CEP: cep, Err: newLookupError(cep, MsgNotFound), Attempts: 1}
	}
	return models.Outcome{
		CEP:      cep,
		Result:   models.NewLookupResult(cep, []models.Field{{Key: "uf", Value: "SP"}}),
		Attempts: 1,
	}
}

func (s *stubLookup) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy"}
}

func (s *stubLookup) callCount(cep string) int32 {
	count, ok := s.calls.Load(cep)
	if !ok {
		return 0
	}
	return atomic.LoadInt32(count.(*int32))
}

func makeCEPs(n int) []string {
	ceps := make([]string, n)
	for i := range ceps {
		ceps[i] = fmt.Sprintf("%08d", 1000000+i)
	}
	return ceps
}

func TestSchedulerRespectsConcurrencyLimit(t *testing.T) {
	tests := []struct {
		limit int
		chunk int
		total int
	}{
		{limit: 1, chunk: 5, total: 7},
		{limit: 3, chunk: 10, total: 25},
		{limit: 5, chunk: 4, total: 13},
		{limit: 8, chunk: 100, total: 8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d total=%d", tt.limit, tt.total), func(t *testing.T) {
			lookup := &stubLookup{delay: 5 * time.Millisecond}
			scheduler := NewScheduler(lookup, tt.limit, tt.chunk, logger.Discard())

			ceps := makeCEPs(tt.total)
			var collected []models.Outcome
			scheduler.Run(context.Background(), ceps, func(o models.Outcome) {
				collected = append(collected, o)
			}, nil)

			assert.Len(t, collected, tt.total)
			assert.LessOrEqual(t, int(atomic.LoadInt32(&lookup.maxSeen)), tt.limit)
			for _, cep := range ceps {
				assert.EqualValues(t, 1, lookup.callCount(cep), cep)
			}
		})
	}
}

func TestSchedulerLeavesInputUntouched(t *testing.T) {
	lookup := &stubLookup{}
	scheduler := NewScheduler(lookup, 4, 10, logger.Discard())

	ceps := makeCEPs(10)
	snapshot := append([]string(nil), ceps...)

	scheduler.Run(context.Background(), ceps, func(models.Outcome) {}, nil)

	assert.Equal(t, snapshot, ceps)
}

func TestSchedulerReportsProgressPerChunk(t *testing.T) {
	lookup := &stubLookup{}
	scheduler := NewScheduler(lookup, 2, 4, logger.Discard())

	var progress [][2]int
	scheduler.Run(context.Background(), makeCEPs(10), func(models.Outcome) {}, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})

	assert.Equal(t, [][2]int{{4, 10}, {8, 10}, {10, 10}}, progress)
}

func TestSchedulerEmptyInput(t *testing.T) {
	lookup := &stubLookup{}
	scheduler := NewScheduler(lookup, 2, 4, logger.Discard())

	called := false
	scheduler.Run(context.Background(), nil, func(models.Outcome) { called = true }, func(int, int) { called = true })

	assert.False(t, called)
	assert.Zero(t, atomic.LoadInt32(&lookup.maxSeen))
}

func TestNewSchedulerCoercesLimits(t *testing.T) {
	scheduler := NewScheduler(&stubLookup{}, 0, 0, logger.Discard())
	require.NotNil(t, scheduler)

	assert.Equal(t, 1, scheduler.maxConcurrency)
	assert.Equal(t, 1, scheduler.chunkSize)
}
