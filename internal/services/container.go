package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/export"
	"github.com/nexconsult/cep-processor/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheCleanupInterval = 10 * time.Minute

// Container holds all service dependencies
type Container struct {
	config        *config.Config
	logger        *logrus.Logger
	redisClient   *redis.Client
	stopCleanup   context.CancelFunc
	Store         *storage.Store
	CacheService  CacheServiceInterface
	LookupService LookupServiceInterface
	Processor     ProcessorInterface
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	if cfg.Cache.Enabled {
		container.initRedis()
	}

	store, err := storage.Open(cfg.Output.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	container.Store = store
	logger.WithField("path", cfg.Output.DBPath).Info("Database initialized")

	container.initServices()

	return container, nil
}

// initRedis initializes Redis client
func (c *Container) initRedis() {
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout)
	defer cancel()
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.Warn("Redis connection failed, caching in memory")
		c.redisClient.Close()
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}
}

// initServices wires the lookup engine and its sinks
func (c *Container) initServices() {
	var cache CacheServiceInterface
	if c.config.Cache.Enabled {
		cacheService := NewCacheService(c.redisClient, c.config.Cache.TTL, c.logger)

		ctx, cancel := context.WithCancel(context.Background())
		cacheService.StartCleanupRoutine(ctx, cacheCleanupInterval)
		c.stopCleanup = cancel

		cache = cacheService
		c.CacheService = cacheService
	}

	lookup := NewLookupService(c.config.Lookup, nil, cache, c.logger)
	c.LookupService = lookup

	scheduler := NewScheduler(lookup, c.config.Lookup.MaxConcurrency, c.config.Lookup.ChunkSize, c.logger)

	sinks := export.NewRunner(c.logger,
		c.Store,
		export.NewErrorCSVSink(c.config.Output.ErrorsCSV, c.logger),
		export.NewJSONSink(c.config.Output.JSONFile, c.logger),
		export.NewXMLSink(c.config.Output.XMLFile, c.logger),
	)

	c.Processor = NewProcessor(c.config, scheduler, sinks, c.logger)
}

// Close closes all service connections
func (c *Container) Close() error {
	var errors []error

	if c.stopCleanup != nil {
		c.stopCleanup()
	}

	// Close Redis connection
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close database: %w", err))
		}
	}

	// Return combined errors if any
	if len(errors) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errors)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.CacheService != nil {
		health["cache"] = c.CacheService.Health()
	} else {
		health["cache"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	if c.Store != nil {
		health["database"] = c.Store.Health()
	}

	if c.LookupService != nil {
		health["lookup"] = c.LookupService.Health()
	}

	if c.Processor != nil {
		health["processor"] = c.Processor.Health()
	}

	return health
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
