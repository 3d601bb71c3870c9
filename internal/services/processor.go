package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/export"
	"github.com/nexconsult/cep-processor/internal/input"
	"github.com/nexconsult/cep-processor/internal/metrics"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/sirupsen/logrus"
)

// Processor drives one end-to-end run: lookups, aggregation, persistence
type Processor struct {
	config    *config.Config
	scheduler *Scheduler
	sinks     *export.Runner
	logger    *logrus.Logger

	// one run at a time per process
	mu      sync.Mutex
	running atomic.Bool

	runCounter int64
	lastRun    atomic.Pointer[models.RunStats]
}

// NewProcessor creates a new processor
func NewProcessor(cfg *config.Config, scheduler *Scheduler, sinks *export.Runner, logger *logrus.Logger) *Processor {
	return &Processor{
		config:    cfg,
		scheduler: scheduler,
		sinks:     sinks,
		logger:    logger,
	}
}

// ProcessFile reads the CEPs of a CSV file and processes them. Input faults are
// returned before any lookup starts.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*models.RunReport, error) {
	p.logger.WithField("path", path).Info("Reading input file")

	ceps, column, err := input.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"column":     column.Name,
		"index":      column.Index,
		"has_header": column.HasHeader,
		"ceps":       len(ceps),
	}).Info("CEP column detected")

	return p.Process(ctx, ceps)
}

// Process looks up every CEP, persists the aggregated run and returns its report
func (p *Processor) Process(ctx context.Context, ceps []string) (*models.RunReport, error) {
	if !p.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.mu.Unlock()

	p.running.Store(true)
	defer p.running.Store(false)

	runID := uuid.New().String()
	atomic.AddInt64(&p.runCounter, 1)

	logger := p.logger.WithField("run_id", runID)
	logger.WithFields(logrus.Fields{
		"total":           len(ceps),
		"max_concurrency": p.config.Lookup.MaxConcurrency,
		"timeout":         p.config.Lookup.Timeout.String(),
		"max_retries":     p.config.Lookup.MaxRetries,
	}).Infof("Processing %d CEPs", len(ceps))

	agg := NewAggregator(runID, len(ceps))
	agg.Begin()
	p.scheduler.Run(ctx, ceps, agg.Add, nil)
	run := agg.Finish()

	// every finalized outcome is persisted even when ctx is already cancelled
	sinkErr := p.sinks.Persist(context.WithoutCancel(ctx), run)

	stats := run.Stats
	p.lastRun.Store(&stats)
	p.logStats(logger, stats)

	status := "success"
	if sinkErr != nil {
		status = "partial"
	}
	metrics.Runs.WithLabelValues(status).Inc()
	metrics.RunDuration.Observe(stats.Duration().Seconds())

	return p.report(run, sinkErr), nil
}

func (p *Processor) report(run *models.Run, sinkErr error) *models.RunReport {
	report := &models.RunReport{
		Success:        true,
		RunID:          run.ID,
		Stats:          run.Stats.Summarize(),
		PreviewResults: run.PreviewResults(p.config.Output.PreviewSize),
		PreviewErrors:  run.PreviewErrors(p.config.Output.PreviewSize),
		Files: models.OutputFiles{
			JSON: filepath.Base(p.config.Output.JSONFile),
			XML:  filepath.Base(p.config.Output.XMLFile),
		},
	}

	if len(run.Errors) > 0 {
		report.Files.ErrorsCSV = filepath.Base(p.config.Output.ErrorsCSV)
	}

	if merr, ok := sinkErr.(*multierror.Error); ok {
		for _, err := range merr.Errors {
			report.SinkErrors = append(report.SinkErrors, err.Error())
		}
	} else if sinkErr != nil {
		report.SinkErrors = []string{sinkErr.Error()}
	}

	return report
}

func (p *Processor) logStats(logger *logrus.Entry, stats models.RunStats) {
	duration := stats.Duration()
	logger.WithFields(logrus.Fields{
		"total":        stats.Total,
		"success":      stats.Success,
		"errors":       stats.Errors,
		"success_rate": fmt.Sprintf("%.2f%%", stats.SuccessRate()),
		"duration":     duration.Round(time.Millisecond).String(),
		"per_second":   fmt.Sprintf("%.2f", stats.Throughput()),
	}).Info("Processing finished")
}

// Health returns processor health status
func (p *Processor) Health() map[string]interface{} {
	health := map[string]interface{}{
		"status":    "healthy",
		"running":   p.running.Load(),
		"run_count": atomic.LoadInt64(&p.runCounter),
	}

	if last := p.lastRun.Load(); last != nil {
		health["last_run"] = last.Summarize()
	}

	return health
}
