package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cep-processor/internal/config"
	"golang.org/x/time/rate"
)

// RateLimiter throttles API requests per client IP with a token bucket
type RateLimiter struct {
	config   config.RateLimitConfig
	clients  map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mu       sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
// Call Stop to end the loop.
func NewRateLimiter(config config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		clients:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		stop:     make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go rl.cleanupLoop()
	}

	return rl
}

// Middleware returns the rate limiting middleware. A non-positive limit disables it.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		limiter := rl.getLimiter(c.ClientIP())
		limit := fmt.Sprintf("%d", rl.config.RequestsPerMinute)

		if !limiter.Allow() {
			retryAfter := rl.retryAfter()

			c.Header("X-RateLimit-Limit", limit)
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter.Seconds())))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Too many requests. Try again in %v", retryAfter),
				"retry_after": retryAfter.Seconds(),
				"timestamp":   time.Now(),
			})
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(math.Max(0, limiter.Tokens()))))

		c.Next()
	}
}

// getLimiter gets or creates the limiter of a client
func (rl *RateLimiter) getLimiter(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lastSeen[clientID] = time.Now()

	if limiter, exists := rl.clients[clientID]; exists {
		return limiter
	}

	burst := rl.config.BurstSize
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(rl.config.RequestsPerMinute)/60.0), burst)
	rl.clients[clientID] = limiter

	return limiter
}

// retryAfter is the time for one token to refill
func (rl *RateLimiter) retryAfter() time.Duration {
	tokensPerSecond := float64(rl.config.RequestsPerMinute) / 60.0
	if tokensPerSecond <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / tokensPerSecond)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-rl.config.CleanupInterval * 2))
		}
	}
}

// cleanup drops the limiters of clients not seen since cutoff
func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for clientID, lastSeen := range rl.lastSeen {
		if lastSeen.Before(cutoff) {
			delete(rl.clients, clientID)
			delete(rl.lastSeen, clientID)
		}
	}
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"active_clients":      len(rl.clients),
		"requests_per_minute": rl.config.RequestsPerMinute,
		"burst_size":          rl.config.BurstSize,
		"cleanup_interval":    rl.config.CleanupInterval.String(),
	}
}
