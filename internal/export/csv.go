package export

import (
	"context"
	"encoding/csv"
	"os"
	"time"

	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/sirupsen/logrus"
)

var errorColumns = []string{"cep", "error", "timestamp"}

// ErrorCSVSink writes the lookup errors of a run as a flat table
type ErrorCSVSink struct {
	path   string
	logger *logrus.Logger
}

// NewErrorCSVSink creates an error export writing to path
func NewErrorCSVSink(path string, logger *logrus.Logger) *ErrorCSVSink {
	return &ErrorCSVSink{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics
func (s *ErrorCSVSink) Name() string { return "errors_csv" }

// Path returns the output file
func (s *ErrorCSVSink) Path() string { return s.path }

// Write overwrites the output file with the errors of run. A run without
// errors leaves the file untouched.
func (s *ErrorCSVSink) Write(_ context.Context, run *models.Run) error {
	if len(run.Errors) == 0 {
		s.logger.Info("No errors to export")
		return nil
	}

	err := writeFile(s.path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(errorColumns); err != nil {
			return err
		}
		for _, lookupErr := range run.Errors {
			row := []string{
				lookupErr.CEP,
				lookupErr.Error,
				lookupErr.Timestamp.Format(time.RFC3339Nano),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"path":    s.path,
		"records": len(run.Errors),
	}).Info("Errors exported")
	return nil
}
