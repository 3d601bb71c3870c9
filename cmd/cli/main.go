package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/input"
	"github.com/nexconsult/cep-processor/internal/logger"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/nexconsult/cep-processor/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	inputPath := flag.String("input", cfg.Output.InputCSV, "CSV file holding the CEPs to process")
	flag.Parse()

	logger := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, *inputPath, logger, os.Stdout))
}

// run processes inputPath once and returns the process exit code
func run(ctx context.Context, cfg *config.Config, inputPath string, logger *logrus.Logger, out io.Writer) int {
	container, err := services.NewContainer(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize services")
		return 1
	}
	defer container.Close()

	report, err := container.Processor.ProcessFile(ctx, inputPath)
	if err != nil {
		fields := logrus.Fields{"path": inputPath, "error": err.Error()}
		switch {
		case errors.Is(err, input.ErrInputNotFound):
			logger.WithFields(fields).Error("Input file not found")
		case errors.Is(err, input.ErrNoColumns), errors.Is(err, input.ErrNoCodes):
			logger.WithFields(fields).Error("Input file has no CEPs")
		default:
			logger.WithFields(fields).Error("Processing failed")
		}
		return 1
	}

	printReport(out, report)
	return 0
}

func printReport(out io.Writer, report *models.RunReport) {
	stats := report.Stats
	fmt.Fprintf(out, "Run %s\n", report.RunID)
	fmt.Fprintf(out, "  total:      %d\n", stats.Total)
	fmt.Fprintf(out, "  success:    %d\n", stats.Success)
	fmt.Fprintf(out, "  errors:     %d\n", stats.Errors)
	fmt.Fprintf(out, "  rate:       %.2f%%\n", stats.SuccessRate)
	fmt.Fprintf(out, "  duration:   %.2fs\n", stats.DurationSeconds)
	fmt.Fprintf(out, "  throughput: %.2f CEPs/s\n", stats.PerSecond)

	fmt.Fprintf(out, "Files: %s, %s", report.Files.JSON, report.Files.XML)
	if report.Files.ErrorsCSV != "" {
		fmt.Fprintf(out, ", %s", report.Files.ErrorsCSV)
	}
	fmt.Fprintln(out)

	for _, sinkErr := range report.SinkErrors {
		fmt.Fprintf(out, "Sink failure: %s\n", sinkErr)
	}
}
