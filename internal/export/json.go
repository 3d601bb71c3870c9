package export

import (
	"context"
	"encoding/json"
	"os"

	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/sirupsen/logrus"
)

// JSONSink writes the results of a run as an indented JSON array
type JSONSink struct {
	path   string
	logger *logrus.Logger
}

// NewJSONSink creates a JSON sink writing to path
func NewJSONSink(path string, logger *logrus.Logger) *JSONSink {
	return &JSONSink{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics
func (s *JSONSink) Name() string { return "json" }

// Path returns the output file
func (s *JSONSink) Path() string { return s.path }

// Write overwrites the output file with every result of run
func (s *JSONSink) Write(_ context.Context, run *models.Run) error {
	results := run.Results
	if results == nil {
		results = []*models.LookupResult{}
	}

	err := writeFile(s.path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"path":    s.path,
		"records": len(results),
	}).Info("JSON saved")
	return nil
}
