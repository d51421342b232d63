package worker

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/snow-ghost/thoughtsearch/search"
)

// Config holds configuration for the worker
type Config struct {
	WorkerType string
	WorkerPort string

	GeneratorMode    string // mock or script
	EvaluatorMode    string // mock, keywords or wasm
	ScriptPath       string
	ScorerPath       string
	SearchConfigPath string

	CacheEnabled bool
	CacheSize    int
	CacheTTL     time.Duration

	GuardEnabled   bool
	RateLimitRPS   float64
	RateLimitBurst int
	CallTimeout    time.Duration
	CallRetries    int

	RequestTimeout time.Duration
	PortfolioLimit int
	AccountingDB   string // empty keeps run records in memory

	LogLevel       string
	LogFormat      string
	JaegerEndpoint string
	Environment    string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		WorkerType: getEnv("WORKER_TYPE", string(WorkerTypeLight)),
		WorkerPort: getEnv("WORKER_PORT", "8081"),

		GeneratorMode:    getEnv("GENERATOR_MODE", "mock"),
		EvaluatorMode:    getEnv("EVALUATOR_MODE", "mock"),
		ScriptPath:       getEnv("SCRIPT_PATH", ""),
		ScorerPath:       getEnv("SCORER_PATH", ""),
		SearchConfigPath: getEnv("SEARCH_CONFIG", ""),

		CacheEnabled: getEnvBool("CACHE_ENABLED", true),
		CacheSize:    getEnvInt("CACHE_SIZE", 10000),
		CacheTTL:     getEnvDuration("CACHE_TTL", "10m"),

		GuardEnabled:   getEnvBool("GUARD_ENABLED", true),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 1),
		CallTimeout:    getEnvDuration("CALL_TIMEOUT", "30s"),
		CallRetries:    getEnvInt("CALL_RETRIES", 2),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", "2m"),
		PortfolioLimit: getEnvInt("PORTFOLIO_LIMIT", 2),
		AccountingDB:   getEnv("ACCOUNTING_DB", ""),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		Environment:    getEnv("ENVIRONMENT", "development"),
	}
}

// SearchConfig returns the base search configuration, read from
// SearchConfigPath when set.
func (c *Config) SearchConfig() (search.Config, error) {
	if c.SearchConfigPath == "" {
		return search.DefaultConfig(), nil
	}
	return search.LoadConfig(c.SearchConfigPath)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
