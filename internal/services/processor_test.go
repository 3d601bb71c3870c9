package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/export"
	"github.com/nexconsult/cep-processor/internal/input"
	"github.com/nexconsult/cep-processor/internal/logger"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/nexconsult/cep-processor/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newViaCEPStub answers 01310100 with an address and everything else as not found
func newViaCEPStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/ws/01310100/json/" {
			fmt.Fprint(w, paulista)
			return
		}
		fmt.Fprint(w, `{"erro": true}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Lookup = testLookupConfig(serverURL, 2)
	cfg.Output.Dir = dir
	cfg.Output.DBPath = filepath.Join(dir, "cep.db")
	cfg.Output.ErrorsCSV = filepath.Join(dir, "errors.csv")
	cfg.Output.JSONFile = filepath.Join(dir, "enderecos.json")
	cfg.Output.XMLFile = filepath.Join(dir, "enderecos.xml")
	cfg.Output.PreviewSize = 1
	return cfg
}

func newTestProcessor(t *testing.T, cfg *config.Config, lookup LookupServiceInterface) (*Processor, *storage.Store) {
	t.Helper()
	log := logger.Discard()

	store, err := storage.Open(cfg.Output.DBPath, log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	scheduler := NewScheduler(lookup, cfg.Lookup.MaxConcurrency, cfg.Lookup.ChunkSize, log)
	sinks := export.NewRunner(log,
		store,
		export.NewErrorCSVSink(cfg.Output.ErrorsCSV, log),
		export.NewJSONSink(cfg.Output.JSONFile, log),
		export.NewXMLSink(cfg.Output.XMLFile, log),
	)

	return NewProcessor(cfg, scheduler, sinks, log), store
}

func TestProcessEndToEnd(t *testing.T) {
	srv := newViaCEPStub(t)
	cfg := testConfig(t, srv.URL)
	lookup, _ := newTestLookup(cfg.Lookup, nil)
	processor, store := newTestProcessor(t, cfg, lookup)

	report, err := processor.Process(context.Background(), []string{"01310-100", "00000-000"})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Success)
	assert.Equal(t, 1, report.Stats.Errors)
	assert.Equal(t, 50.0, report.Stats.SuccessRate)
	assert.Empty(t, report.SinkErrors)
	assert.Equal(t, "enderecos.json", report.Files.JSON)
	assert.Equal(t, "enderecos.xml", report.Files.XML)
	assert.Equal(t, "errors.csv", report.Files.ErrorsCSV)

	require.Len(t, report.PreviewResults, 1)
	assert.Equal(t, "01310-100", report.PreviewResults[0].CEP())
	require.Len(t, report.PreviewErrors, 1)
	assert.Equal(t, "00000000", report.PreviewErrors[0].CEP)
	assert.Equal(t, MsgNotFound, report.PreviewErrors[0].Error)

	ctx := context.Background()
	results, err := store.CountResults(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, results)
	errorCount, err := store.CountErrors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, errorCount)

	stored, err := store.FindResult(ctx, "01310-100")
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista", stored.GetString("logradouro"))

	data, err := os.ReadFile(cfg.Output.JSONFile)
	require.NoError(t, err)
	var exported []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, "01310-100", exported[0]["cep"])

	xmlData, err := os.ReadFile(cfg.Output.XMLFile)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(xmlData), "<endereco>"))
	assert.Contains(t, string(xmlData), "<logradouro>Avenida Paulista</logradouro>")

	csvData, err := os.ReadFile(cfg.Output.ErrorsCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "cep,error,timestamp\n"))
	assert.Contains(t, string(csvData), "00000000,CEP not found,")

	health := processor.Health()
	assert.EqualValues(t, 1, health["run_count"])
	assert.Equal(t, false, health["running"])
	assert.NotNil(t, health["last_run"])
}

func TestProcessRepeatedRunUpserts(t *testing.T) {
	srv := newViaCEPStub(t)
	cfg := testConfig(t, srv.URL)
	lookup, _ := newTestLookup(cfg.Lookup, nil)
	processor, store := newTestProcessor(t, cfg, lookup)

	ceps := []string{"01310-100", "00000-000"}
	_, err := processor.Process(context.Background(), ceps)
	require.NoError(t, err)
	_, err = processor.Process(context.Background(), ceps)
	require.NoError(t, err)

	results, err := store.CountResults(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, results)

	errorCount, err := store.CountErrors(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, errorCount)
}

func TestProcessEmptyInput(t *testing.T) {
	srv := newViaCEPStub(t)
	cfg := testConfig(t, srv.URL)
	lookup, _ := newTestLookup(cfg.Lookup, nil)
	processor, store := newTestProcessor(t, cfg, lookup)

	report, err := processor.Process(context.Background(), []string{})
	require.NoError(t, err)

	assert.Zero(t, report.Stats.Total)
	assert.Zero(t, report.Stats.Success)
	assert.Zero(t, report.Stats.Errors)
	assert.Zero(t, report.Stats.PerSecond)
	assert.Zero(t, report.Stats.SuccessRate)
	assert.Empty(t, report.PreviewResults)
	assert.Empty(t, report.PreviewErrors)
	assert.Empty(t, report.Files.ErrorsCSV)

	results, err := store.CountResults(context.Background())
	require.NoError(t, err)
	assert.Zero(t, results)

	for _, path := range []string{cfg.Output.JSONFile, cfg.Output.XMLFile, cfg.Output.ErrorsCSV} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
}

func TestProcessFile(t *testing.T) {
	srv := newViaCEPStub(t)
	cfg := testConfig(t, srv.URL)
	lookup, _ := newTestLookup(cfg.Lookup, nil)
	processor, _ := newTestProcessor(t, cfg, lookup)

	path := filepath.Join(t.TempDir(), "zip_code_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("nome,cep\nsede,01310-100\nfilial,00000-000\nsede,01310100\n"), 0o644))

	report, err := processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Success)
	assert.Equal(t, 1, report.Stats.Errors)
}

func TestProcessFileInputFaults(t *testing.T) {
	lookup := &stubLookup{}
	cfg := testConfig(t, "http://127.0.0.1:1")
	processor, _ := newTestProcessor(t, cfg, lookup)

	dir := t.TempDir()
	headerOnly := filepath.Join(dir, "header.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("cep\n"), 0o644))
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	_, err := processor.ProcessFile(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, input.ErrInputNotFound)

	_, err = processor.ProcessFile(context.Background(), headerOnly)
	assert.ErrorIs(t, err, input.ErrNoCodes)

	_, err = processor.ProcessFile(context.Background(), empty)
	assert.ErrorIs(t, err, input.ErrNoColumns)

	assert.Zero(t, lookup.maxSeen)
	assert.EqualValues(t, 0, processor.Health()["run_count"])
}

// blockingLookup holds every Fetch until release is closed
type blockingLookup struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingLookup) Fetch(ctx context.Context, cep string) models.Outcome {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	return models.Outcome{CEP: cep, Result: models.NewLookupResult(cep, nil), Attempts: 1}
}

func (b *blockingLookup) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy"}
}

func TestProcessRejectsConcurrentRun(t *testing.T) {
	lookup := &blockingLookup{started: make(chan struct{}, 1), release: make(chan struct{})}
	cfg := testConfig(t, "http://127.0.0.1:1")
	processor, _ := newTestProcessor(t, cfg, lookup)

	done := make(chan error, 1)
	go func() {
		_, err := processor.Process(context.Background(), []string{"01310100"})
		done <- err
	}()

	<-lookup.started
	assert.Equal(t, true, processor.Health()["running"])

	_, err := processor.Process(context.Background(), []string{"20040020"})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(lookup.release)
	require.NoError(t, <-done)

	_, err = processor.Process(context.Background(), []string{"20040020"})
	assert.NoError(t, err)
}

// failingSink always rejects the run
type failingSink struct{}

func (failingSink) Name() string { return "broken" }

func (failingSink) Write(context.Context, *models.Run) error {
	return fmt.Errorf("disk full")
}

func TestProcessReportsSinkFailures(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	log := logger.Discard()

	scheduler := NewScheduler(&stubLookup{}, 2, 2, log)
	sinks := export.NewRunner(log, failingSink{}, export.NewJSONSink(cfg.Output.JSONFile, log))
	processor := NewProcessor(cfg, scheduler, sinks, log)

	report, err := processor.Process(context.Background(), []string{"01310100"})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, []string{"broken: disk full"}, report.SinkErrors)

	_, statErr := os.Stat(cfg.Output.JSONFile)
	assert.NoError(t, statErr)
}

func TestProcessPersistsAfterCancellation(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	processor, store := newTestProcessor(t, cfg, &stubLookup{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := processor.Process(ctx, []string{"01310100", "20040020"})
	require.NoError(t, err)
	assert.Empty(t, report.SinkErrors)

	results, err := store.CountResults(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, results)
}
