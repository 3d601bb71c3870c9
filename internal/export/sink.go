// Package export writes the outcome of a processing run to its persistence sinks.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/nexconsult/cep-processor/internal/metrics"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/sirupsen/logrus"
)

// Sink persists a completed run
type Sink interface {
	Name() string
	Write(ctx context.Context, run *models.Run) error
}

// Runner invokes a fixed list of sinks in sequence
type Runner struct {
	sinks  []Sink
	logger *logrus.Logger
}

// NewRunner creates a runner over sinks
func NewRunner(logger *logrus.Logger, sinks ...Sink) *Runner {
	return &Runner{sinks: sinks, logger: logger}
}

// Persist writes run to every sink. A failing sink never prevents the others
// from running; all failures are returned together.
func (r *Runner) Persist(ctx context.Context, run *models.Run) error {
	if run.Stats.Total == 0 {
		r.logger.Info("Empty run, nothing to persist")
		return nil
	}

	var result *multierror.Error
	for _, sink := range r.sinks {
		if err := r.write(ctx, sink, run); err != nil {
			metrics.SinkFailures.WithLabelValues(sink.Name()).Inc()
			r.logger.WithFields(logrus.Fields{
				"sink":  sink.Name(),
				"error": err.Error(),
			}).Error("Sink failed")
			result = multierror.Append(result, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}

	return result.ErrorOrNil()
}

func (r *Runner) write(ctx context.Context, sink Sink, run *models.Run) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return sink.Write(ctx, run)
}

// writeFile replaces path with the bytes produced by fill
func writeFile(path string, fill func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
