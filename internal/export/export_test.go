package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nexconsult/cep-processor/internal/logger"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *models.Run {
	return &models.Run{
		Stats: models.RunStats{Total: 3, Success: 2, Errors: 1},
		Results: []*models.LookupResult{
			models.NewLookupResult("01310100", []models.Field{
				{Key: "cep", Value: "01310-100"},
				{Key: "logradouro", Value: "Avenida Paulista"},
				{Key: "complemento", Value: ""},
				{Key: "ddd", Value: json.Number("11")},
			}),
			models.NewLookupResult("20040002", []models.Field{
				{Key: "cep", Value: "20040-002"},
				{Key: "logradouro", Value: "Rua da Assembleia"},
				{Key: "complemento", Value: nil},
				{Key: "ddd", Value: json.Number("21")},
			}),
		},
		Errors: []models.LookupError{
			{CEP: "00000000", Error: "CEP not found", Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}
}

func TestJSONSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "enderecos.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	sink := NewJSONSink(path, logger.Discard())
	require.NoError(t, sink.Write(context.Background(), sampleRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Avenida Paulista", decoded[0]["logradouro"])
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"cep\": \"01310-100\""))
}

func TestJSONSinkWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enderecos.json")
	sink := NewJSONSink(path, logger.Discard())

	require.NoError(t, sink.Write(context.Background(), &models.Run{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestEncodeXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeXML(&buf, sampleRun().Results))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>"))
	assert.Equal(t, 1, strings.Count(out, "<enderecos>"))
	assert.Equal(t, 2, strings.Count(out, "<endereco>"))
	assert.Contains(t, out, "<logradouro>Avenida Paulista</logradouro>")
	assert.Contains(t, out, "<complemento></complemento>")
	assert.Contains(t, out, "<ddd>21</ddd>")
}

func TestEncodeXMLEscapesValues(t *testing.T) {
	var buf bytes.Buffer
	results := []*models.LookupResult{
		models.NewLookupResult("1", []models.Field{{Key: "logradouro", Value: "Rua A & B <C>"}}),
	}
	require.NoError(t, EncodeXML(&buf, results))
	assert.Contains(t, buf.String(), "Rua A &amp; B &lt;C&gt;")
}

func TestElementName(t *testing.T) {
	assert.Equal(t, "localidade", elementName("localidade"))
	assert.Equal(t, "_1st", elementName("1st"))
	assert.Equal(t, "a_b", elementName("a b"))
	assert.Equal(t, "_xmlns", elementName("xmlns"))
	assert.Equal(t, "_", elementName(""))
}

func TestXMLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enderecos.xml")
	sink := NewXMLSink(path, logger.Discard())

	require.NoError(t, sink.Write(context.Background(), sampleRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "<endereco>"))
}

func TestErrorCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.csv")
	sink := NewErrorCSVSink(path, logger.Discard())

	require.NoError(t, sink.Write(context.Background(), sampleRun()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"cep", "error", "timestamp"},
		{"00000000", "CEP not found", "2025-01-02T03:04:05Z"},
	}, rows)
}

func TestErrorCSVSinkSkipsWithoutErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.csv")
	sink := NewErrorCSVSink(path, logger.Discard())

	require.NoError(t, sink.Write(context.Background(), &models.Run{Stats: models.RunStats{Total: 1}}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

type stubSink struct {
	name  string
	err   error
	panic bool
	calls int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Write(context.Context, *models.Run) error {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.err
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	failing := &stubSink{name: "database", err: errors.New("disk full")}
	panicking := &stubSink{name: "xml", panic: true}
	healthy := &stubSink{name: "json"}

	runner := NewRunner(logger.Discard(), failing, panicking, healthy)
	err := runner.Persist(context.Background(), sampleRun())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database: disk full")
	assert.Contains(t, err.Error(), "xml: panic: boom")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, panicking.calls)
	assert.Equal(t, 1, healthy.calls)
}

func TestRunnerSkipsEmptyRun(t *testing.T) {
	sink := &stubSink{name: "json"}
	runner := NewRunner(logger.Discard(), sink)

	require.NoError(t, runner.Persist(context.Background(), &models.Run{}))
	assert.Zero(t, sink.calls)
}
