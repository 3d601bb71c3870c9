package services

import (
	"context"

	"github.com/nexconsult/cep-processor/internal/models"
)

// LookupServiceInterface defines the interface for single CEP lookups
type LookupServiceInterface interface {
	// Fetch resolves one CEP, retrying transient faults. It always returns a
	// final outcome and never fails the caller.
	Fetch(ctx context.Context, cep string) models.Outcome

	// Health returns service health status
	Health() map[string]interface{}
}

// ProcessorInterface defines the interface for end-to-end processing runs
type ProcessorInterface interface {
	// Process runs the lookup engine over ceps and persists the outcome
	Process(ctx context.Context, ceps []string) (*models.RunReport, error)

	// ProcessFile reads the CEPs from a CSV file before processing them
	ProcessFile(ctx context.Context, path string) (*models.RunReport, error)

	// Health returns processor health status
	Health() map[string]interface{}
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value string) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear clears all cache entries
	Clear(ctx context.Context) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache service health status
	Health() map[string]interface{}
}
