package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/logger"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/nexconsult/cep-processor/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws/01310100/json/" {
			fmt.Fprint(w, `{"cep":"01310-100","logradouro":"Avenida Paulista","uf":"SP"}`)
			return
		}
		fmt.Fprint(w, `{"erro": true}`)
	}))
	t.Cleanup(upstream.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Lookup.ServiceURL = upstream.URL + "/ws/{cep}/json/"
	cfg.Lookup.MaxRetries = 1
	cfg.Output.InputCSV = filepath.Join(dir, "missing.csv")
	cfg.Output.Dir = dir
	cfg.Output.DBPath = filepath.Join(dir, "cep.db")
	cfg.Output.ErrorsCSV = filepath.Join(dir, "errors.csv")
	cfg.Output.JSONFile = filepath.Join(dir, "enderecos.json")
	cfg.Output.XMLFile = filepath.Join(dir, "enderecos.xml")
	if mutate != nil {
		mutate(cfg)
	}

	log := logger.Discard()
	container, err := services.NewContainer(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	server := NewServer(cfg, log, container)
	t.Cleanup(server.Close)
	return server
}

func do(server *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func TestProcessRoute(t *testing.T) {
	server := newTestServer(t, nil)

	w := do(server, http.MethodPost, "/api/v1/process", `{"ceps":["01310-100","00000-000"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Success)
	assert.Equal(t, 1, report.Stats.Errors)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProcessRouteMissingInputFile(t *testing.T) {
	server := newTestServer(t, nil)

	w := do(server, http.MethodPost, "/api/v1/process", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "INPUT_NOT_FOUND")
}

func TestHealthRoutes(t *testing.T) {
	server := newTestServer(t, nil)

	w := do(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Services, "database")
	assert.Contains(t, health.Services, "lookup")

	assert.Equal(t, http.StatusOK, do(server, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(server, http.MethodGet, "/health/ready", "").Code)
}

func TestMetricsRoute(t *testing.T) {
	server := newTestServer(t, nil)
	do(server, http.MethodPost, "/api/v1/process", `{"ceps":["01310100"]}`)

	w := do(server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cep_runs_total")
	assert.Contains(t, w.Body.String(), "cep_lookup_attempts_total")
}

func TestCacheRoutesFollowConfig(t *testing.T) {
	disabled := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(disabled, http.MethodGet, "/api/v1/cache/stats", "").Code)

	enabled := newTestServer(t, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Redis.Port = 1
		cfg.Redis.DialTimeout = 100 * time.Millisecond
	})
	assert.Equal(t, http.StatusOK, do(enabled, http.MethodGet, "/api/v1/cache/stats", "").Code)
}

func TestSwaggerHiddenInProduction(t *testing.T) {
	server := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.Environment = "production"
	})

	assert.Equal(t, http.StatusNotFound, do(server, http.MethodGet, "/swagger/index.html", "").Code)
}

func TestNoMethod(t *testing.T) {
	server := newTestServer(t, nil)

	w := do(server, http.MethodGet, "/api/v1/process", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
