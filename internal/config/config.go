package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CEPPlaceholder is substituted by the normalized CEP in the lookup URL template
const CEPPlaceholder = "{cep}"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Lookup   LookupConfig   `json:"lookup"`
	Output   OutputConfig   `json:"output"`
	Redis    RedisConfig    `json:"redis"`
	Cache    CacheConfig    `json:"cache"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// LookupConfig holds the batch lookup engine configuration
type LookupConfig struct {
	ServiceURL     string        `json:"service_url"`
	MaxConcurrency int           `json:"max_concurrency"`
	Timeout        time.Duration `json:"timeout"`
	MaxRetries     int           `json:"max_retries"`
	RetryDelay     time.Duration `json:"retry_delay"`
	ChunkSize      int           `json:"chunk_size"`
	RatePerMinute  int           `json:"rate_per_minute"`
}

// OutputConfig holds input and persistence paths
type OutputConfig struct {
	InputCSV    string `json:"input_csv"`
	Dir         string `json:"dir"`
	DBPath      string `json:"db_path"`
	ErrorsCSV   string `json:"errors_csv"`
	JSONFile    string `json:"json_file"`
	XMLFile     string `json:"xml_file"`
	PreviewSize int    `json:"preview_size"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// CacheConfig holds lookup cache configuration
type CacheConfig struct {
	Enabled bool          `json:"enabled"`
	TTL     time.Duration `json:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Default returns the configuration used when no environment variable is set
func Default() *Config {
	outputDir := "out_put"
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			Environment:  "development",
			ReadTimeout:  30,
			WriteTimeout: 600,
			IdleTimeout:  60,
		},
		Lookup: LookupConfig{
			ServiceURL:     "https://viacep.com.br/ws/{cep}/json/",
			MaxConcurrency: 50,
			Timeout:        10 * time.Second,
			MaxRetries:     2,
			RetryDelay:     500 * time.Millisecond,
			ChunkSize:      100,
		},
		Output: OutputConfig{
			InputCSV:    filepath.Join("data", "zip_code_data.csv"),
			Dir:         outputDir,
			DBPath:      filepath.Join(outputDir, "cep.db"),
			ErrorsCSV:   filepath.Join(outputDir, "errors.csv"),
			JSONFile:    filepath.Join(outputDir, "enderecos.json"),
			XMLFile:     filepath.Join(outputDir, "enderecos.xml"),
			PreviewSize: 10,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         5,
				CleanupInterval:   60 * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"*"},
			},
		},
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	def := Default()

	outputDir := getEnv("OUTPUT_DIR", def.Output.Dir)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", def.Server.Port),
			Environment:  getEnv("ENVIRONMENT", def.Server.Environment),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", def.Server.ReadTimeout),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", def.Server.WriteTimeout),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", def.Server.IdleTimeout),
		},
		Lookup: LookupConfig{
			ServiceURL:     getEnv("SERVICE_CEP", def.Lookup.ServiceURL),
			MaxConcurrency: getEnvAsInt("MAX_CONCURRENT_REQUESTS", def.Lookup.MaxConcurrency),
			Timeout:        time.Duration(getEnvAsInt("REQUEST_TIMEOUT", 10)) * time.Second,
			MaxRetries:     getEnvAsInt("MAX_RETRIES", def.Lookup.MaxRetries),
			RetryDelay:     time.Duration(getEnvAsInt("RETRY_DELAY_MS", 500)) * time.Millisecond,
			ChunkSize:      getEnvAsInt("CHUNK_SIZE", def.Lookup.ChunkSize),
			RatePerMinute:  getEnvAsInt("LOOKUP_RATE_PER_MINUTE", 0),
		},
		Output: OutputConfig{
			InputCSV:    getEnv("CSV_INPUT", def.Output.InputCSV),
			Dir:         outputDir,
			DBPath:      getEnv("DB_PATH", filepath.Join(outputDir, "cep.db")),
			ErrorsCSV:   getEnv("CSV_ERRORS", filepath.Join(outputDir, "errors.csv")),
			JSONFile:    getEnv("JSON_OUTPUT", filepath.Join(outputDir, "enderecos.json")),
			XMLFile:     getEnv("XML_OUTPUT", filepath.Join(outputDir, "enderecos.xml")),
			PreviewSize: getEnvAsInt("PREVIEW_SIZE", def.Output.PreviewSize),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", def.Redis.Host),
			Port:         getEnvAsInt("REDIS_PORT", def.Redis.Port),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", def.Redis.PoolSize),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		Cache: CacheConfig{
			Enabled: getEnvAsBool("CACHE_ENABLED", false),
			TTL:     time.Duration(getEnvAsInt("CACHE_TTL", 86400)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", def.Log.Level),
			Format: getEnv("LOG_FORMAT", def.Log.Format),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", def.Security.RateLimit.RequestsPerMinute),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", def.Security.RateLimit.BurstSize),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: def.Security.CORS,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values the lookup engine cannot run without
func (c *Config) Validate() error {
	if !strings.Contains(c.Lookup.ServiceURL, CEPPlaceholder) {
		return fmt.Errorf("SERVICE_CEP must contain the %s placeholder", CEPPlaceholder)
	}
	if c.Lookup.MaxConcurrency < 1 {
		return fmt.Errorf("MAX_CONCURRENT_REQUESTS must be at least 1, got %d", c.Lookup.MaxConcurrency)
	}
	if c.Lookup.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.Lookup.MaxRetries)
	}
	if c.Lookup.Timeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Lookup.ChunkSize < 1 {
		return fmt.Errorf("CHUNK_SIZE must be at least 1, got %d", c.Lookup.ChunkSize)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
