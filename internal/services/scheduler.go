package services

import (
	"context"
	"sync"
	"time"

	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/sirupsen/logrus"
)

// ProgressFunc is called after each reporting chunk completes
type ProgressFunc func(processed, total int)

// Scheduler dispatches lookups in barrier-synchronized waves of at most
// maxConcurrency parallel calls. Waves never overlap.
type Scheduler struct {
	lookup         LookupServiceInterface
	maxConcurrency int
	chunkSize      int
	logger         *logrus.Logger
}

// NewScheduler creates a new scheduler. A concurrency below 1 is raised to 1 and
// a chunk size below 1 falls back to the concurrency.
func NewScheduler(lookup LookupServiceInterface, maxConcurrency, chunkSize int, logger *logrus.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if chunkSize < 1 {
		chunkSize = maxConcurrency
	}

	return &Scheduler{
		lookup:         lookup,
		maxConcurrency: maxConcurrency,
		chunkSize:      chunkSize,
		logger:         logger,
	}
}

// Run looks up every CEP exactly once. ceps is read through an index cursor and
// never modified. Outcomes of a wave are handed to collect sequentially, after
// every lookup of that wave has returned.
func (s *Scheduler) Run(ctx context.Context, ceps []string, collect func(models.Outcome), progress ProgressFunc) {
	total := len(ceps)
	if total == 0 {
		return
	}

	start := time.Now()

	for chunkStart := 0; chunkStart < total; chunkStart += s.chunkSize {
		chunkEnd := min(chunkStart+s.chunkSize, total)

		for waveStart := chunkStart; waveStart < chunkEnd; waveStart += s.maxConcurrency {
			waveEnd := min(waveStart+s.maxConcurrency, chunkEnd)

			for _, outcome := range s.runWave(ctx, ceps[waveStart:waveEnd]) {
				collect(outcome)
			}
		}

		s.logger.WithFields(logrus.Fields{
			"processed": chunkEnd,
			"total":     total,
			"elapsed":   time.Since(start).Round(time.Millisecond).String(),
		}).Infof("Processed %d/%d CEPs", chunkEnd, total)

		if progress != nil {
			progress(chunkEnd, total)
		}
	}
}

// runWave fetches every CEP of the wave in parallel and waits for all of them
func (s *Scheduler) runWave(ctx context.Context, wave []string) []models.Outcome {
	outcomes := make([]models.Outcome, len(wave))

	var wg sync.WaitGroup
	for i, cep := range wave {
		wg.Add(1)
		go func(index int, code string) {
			defer wg.Done()
			outcomes[index] = s.lookup.Fetch(ctx, code)
		}(i, cep)
	}
	wg.Wait()

	return outcomes
}
