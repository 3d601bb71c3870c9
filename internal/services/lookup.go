package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/metrics"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/nexconsult/cep-processor/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxBodySize = 1 << 20

// LookupService implements CEP lookups against the remote service
type LookupService struct {
	config  config.LookupConfig
	client  *http.Client
	cache   CacheServiceInterface
	limiter *rate.Limiter
	logger  *logrus.Logger

	// sleep waits between attempts; replaced in tests
	sleep func(ctx context.Context, d time.Duration)

	requestCounter int64
}

// NewHTTPClient builds the client shared by every lookup of a run. The pool is
// sized to twice the concurrency limit.
func NewHTTPClient(cfg config.LookupConfig) *http.Client {
	poolSize := cfg.MaxConcurrency * 2
	if poolSize < 2 {
		poolSize = 2
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = poolSize
	transport.MaxIdleConnsPerHost = poolSize
	transport.MaxConnsPerHost = poolSize

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}

// NewLookupService creates a new lookup service. cache may be nil.
func NewLookupService(cfg config.LookupConfig, client *http.Client, cache CacheServiceInterface, logger *logrus.Logger) *LookupService {
	if client == nil {
		client = NewHTTPClient(cfg)
	}

	service := &LookupService{
		config: cfg,
		client: client,
		cache:  cache,
		logger: logger,
		sleep:  sleepContext,
	}

	if cfg.RatePerMinute > 0 {
		burst := cfg.MaxConcurrency
		if burst < 1 {
			burst = 1
		}
		service.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), burst)
	}

	return service
}

// Fetch resolves one CEP. Transient faults are retried up to MaxRetries attempts
// with a linear backoff of RetryDelay * attempt; a not-found body is final.
func (s *LookupService) Fetch(ctx context.Context, cep string) models.Outcome {
	cep = utils.NormalizeCEP(cep)
	atomic.AddInt64(&s.requestCounter, 1)

	logger := s.logger.WithField("cep", cep)

	if result, ok := s.fromCache(ctx, cep, logger); ok {
		return models.Outcome{CEP: cep, Result: result, Cached: true}
	}

	endpoint := s.buildURL(cep)
	maxAttempts := s.config.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := s.attempt(ctx, endpoint)
		if err == nil {
			if result.NotFound() {
				logger.WithField("attempt", attempt).Debug("CEP not found")
				return models.Outcome{
					CEP:      cep,
					Err:      newLookupError(cep, MsgNotFound),
					Attempts: attempt,
				}
			}

			result = models.NewLookupResult(cep, result.Fields)
			s.toCache(ctx, cep, result, logger)

			if attempt > 1 {
				logger.WithField("attempt", attempt).Info("Lookup succeeded after retry")
			}
			return models.Outcome{CEP: cep, Result: result, Attempts: attempt}
		}

		lastErr = err

		if attempt >= maxAttempts {
			break
		}

		reason := failureReason(err)
		metrics.LookupRetries.WithLabelValues(reason).Inc()

		delay := s.config.RetryDelay * time.Duration(attempt)
		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"reason":  reason,
			"backoff": delay,
		}).Debug("Retrying lookup after backoff")

		s.sleep(ctx, delay)
	}

	logger.WithFields(logrus.Fields{
		"attempts": maxAttempts,
		"error":    lastErr.Error(),
	}).Warn("Lookup attempts exhausted")

	return models.Outcome{
		CEP:      cep,
		Err:      newLookupError(cep, describeFailure(lastErr)),
		Attempts: maxAttempts,
	}
}

// attempt performs a single HTTP request and decodes a 2xx body
func (s *LookupService) attempt(ctx context.Context, endpoint string) (*models.LookupResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	metrics.LookupAttempts.Inc()
	metrics.LookupsInFlight.Inc()
	start := time.Now()
	defer func() {
		metrics.LookupsInFlight.Dec()
		metrics.LookupDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	var result models.LookupResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid response body: %w", err)
	}

	return &result, nil
}

func (s *LookupService) buildURL(cep string) string {
	return strings.ReplaceAll(s.config.ServiceURL, config.CEPPlaceholder, url.PathEscape(cep))
}

func (s *LookupService) fromCache(ctx context.Context, cep string, logger *logrus.Entry) (*models.LookupResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, CacheKey(cep))
	if err != nil {
		return nil, false
	}

	var result models.LookupResult
	if err := json.Unmarshal([]byte(cached), &result); err != nil {
		logger.WithError(err).Warn("Failed to unmarshal cached CEP data")
		return nil, false
	}

	logger.Debug("CEP found in cache")
	return &result, true
}

func (s *LookupService) toCache(ctx context.Context, cep string, result *models.LookupResult, logger *logrus.Entry) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, CacheKey(cep), string(data)); err != nil {
		logger.WithError(err).Warn("Failed to cache CEP data")
	}
}

// Health returns service health status
func (s *LookupService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":          "healthy",
		"request_count":   atomic.LoadInt64(&s.requestCounter),
		"service_url":     s.config.ServiceURL,
		"max_concurrency": s.config.MaxConcurrency,
		"cache_enabled":   s.cache != nil,
		"rate_limited":    s.limiter != nil,
	}
}

const cepKeyPrefix = "cep:"

// CacheKey returns the cache key of a normalized CEP
func CacheKey(cep string) string {
	return cepKeyPrefix + cep
}

func newLookupError(cep, message string) *models.LookupError {
	return &models.LookupError{
		CEP:       cep,
		Error:     message,
		Timestamp: time.Now(),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func failureReason(err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return "status"
	case isTimeout(err):
		return "timeout"
	default:
		return "transport"
	}
}

// describeFailure renders the error message recorded for an exhausted lookup
func describeFailure(err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case isTimeout(err):
		return MsgTimeout
	default:
		return fmt.Sprintf("request failed: %v", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
