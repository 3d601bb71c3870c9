package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	backendRedis  = "redis"
	backendMemory = "memory"

	scanBatch = 500
)

// CacheService keeps CEP lookup payloads under "cep:<digits>" keys in Redis.
// Entries land in process memory whenever Redis is absent or failing.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	mu      sync.RWMutex
	entries map[string]memoryEntry

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryEntry struct {
	payload string
	expires time.Time
}

func (e memoryEntry) fresh(now time.Time) bool {
	return now.Before(e.expires)
}

// NewCacheService creates a new cache service. client may be nil.
func NewCacheService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CacheService {
	return &CacheService{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached payload of key or ErrCacheMiss
func (c *CacheService) Get(ctx context.Context, key string) (string, error) {
	if c.client != nil {
		payload, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			c.hit(key, backendRedis)
			return payload, nil
		case err != redis.Nil:
			c.redisFailed("get", key, err)
		}
	}

	if payload, ok := c.memGet(key); ok {
		c.hit(key, backendMemory)
		return payload, nil
	}

	c.misses.Add(1)
	return "", ErrCacheMiss
}

// Set stores payload under key for the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, payload string) error {
	if c.client != nil {
		err := c.client.Set(ctx, key, payload, c.ttl).Err()
		if err == nil {
			c.logger.WithField("key", key).Debug("CEP cached in Redis")
			return nil
		}
		c.redisFailed("set", key, err)
	}

	c.memSet(key, payload)
	c.logger.WithField("key", key).Debug("CEP cached in memory")
	return nil
}

// Delete evicts key from both backends
func (c *CacheService) Delete(ctx context.Context, key string) error {
	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.redisFailed("delete", key, err)
		}
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.logger.WithField("key", key).Debug("CEP evicted from cache")
	return nil
}

// Clear evicts every cached CEP. Redis keys outside the "cep:" prefix are left alone.
func (c *CacheService) Clear(ctx context.Context) error {
	removed := 0
	if c.client != nil {
		err := c.scanCEPKeys(ctx, func(keys []string) error {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			removed += len(keys)
			return nil
		})
		if err != nil {
			c.logger.WithField("error", err.Error()).Warn("Redis clear error")
		}
	}

	c.mu.Lock()
	removed += len(c.entries)
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()

	c.hits.Store(0)
	c.misses.Store(0)

	c.logger.WithField("removed", removed).Info("Cache cleared")
	return nil
}

// Exists reports whether key holds a live entry
func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	if c.client != nil {
		count, err := c.client.Exists(ctx, key).Result()
		if err == nil {
			return count > 0, nil
		}
		c.redisFailed("exists", key, err)
	}

	_, ok := c.memGet(key)
	return ok, nil
}

// GetStats reports how many CEPs are cached and how often lookups hit the cache
func (c *CacheService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	hits, misses := c.hits.Load(), c.misses.Load()
	ratio := 0.0
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	memoryCEPs := c.memCount()
	stats := map[string]interface{}{
		"backend":     backendMemory,
		"cached_ceps": memoryCEPs,
		"memory_ceps": memoryCEPs,
		"ttl":         c.ttl.String(),
		"hits":        hits,
		"misses":      misses,
		"hit_ratio":   ratio,
	}

	if c.client != nil {
		redisCEPs := 0
		err := c.scanCEPKeys(ctx, func(keys []string) error {
			redisCEPs += len(keys)
			return nil
		})
		if err != nil {
			stats["redis_error"] = err.Error()
		} else {
			stats["backend"] = backendRedis
			stats["redis_ceps"] = redisCEPs
			stats["cached_ceps"] = redisCEPs + memoryCEPs
		}
	}

	return stats, nil
}

// Health reports the active backend. A configured but unreachable Redis degrades the cache.
func (c *CacheService) Health() map[string]interface{} {
	health := map[string]interface{}{
		"status":      "healthy",
		"backend":     backendMemory,
		"redis":       "disabled",
		"memory_ceps": c.memCount(),
	}

	if c.client == nil {
		return health
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "degraded"
		health["redis"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	health["backend"] = backendRedis
	health["redis"] = "healthy"
	return health
}

// StartCleanupRoutine periodically drops expired in-memory CEPs until ctx is done
func (c *CacheService) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.cleanupExpired(); n > 0 {
					c.logger.WithField("expired", n).Debug("Expired CEPs dropped from memory cache")
				}
			}
		}
	}()
}

func (c *CacheService) cleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	dropped := 0
	for key, entry := range c.entries {
		if !entry.fresh(now) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

func (c *CacheService) memGet(key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !entry.fresh(time.Now()) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.expires.Equal(entry.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return entry.payload, true
}

func (c *CacheService) memSet(key, payload string) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{payload: payload, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// memCount counts live in-memory entries under the CEP key prefix
func (c *CacheService) memCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	count := 0
	for key, entry := range c.entries {
		if strings.HasPrefix(key, cepKeyPrefix) && entry.fresh(now) {
			count++
		}
	}
	return count
}

// scanCEPKeys walks the Redis keyspace under the CEP prefix in batches
func (c *CacheService) scanCEPKeys(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, CacheKey("*"), scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *CacheService) hit(key, backend string) {
	c.hits.Add(1)
	c.logger.WithFields(logrus.Fields{
		"key":     key,
		"backend": backend,
	}).Debug("CEP cache hit")
}

func (c *CacheService) redisFailed(op, key string, err error) {
	c.logger.WithFields(logrus.Fields{
		"operation": op,
		"key":       key,
		"error":     err.Error(),
	}).Warn("Redis unavailable, using memory cache")
}
