// Package config loads process configuration from environment variables
// (secrets, feature toggles) and an optional YAML file (provider/runtime
// tuning), mirroring the teacher's ProvidersConfig split between env and
// gopkg.in/yaml.v3-parsed files (internal/config/providers.go).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment is the deployment tier named in spec.md §6.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config is the fully resolved process configuration.
type Config struct {
	Environment Environment

	GeminiAPIKey  string
	TavilyAPIKey  string
	NewsAPIKey    string
	FinnhubAPIKey string
	PolygonAPIKey string
	APIKey        string

	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisDB       int
	RedisPassword string

	SentryDSN string

	RateLimitRequestsPerMinute int
	DataCacheTTL               time.Duration

	Runtime RuntimeConfig
}

// RuntimeConfig holds the YAML-tunable knobs (component version, provider
// ordering, deadlines) that ops can change without a redeploy.
type RuntimeConfig struct {
	CacheVersion            string        `yaml:"cache_version"`
	SensorFanoutDeadline    time.Duration `yaml:"sensor_fanout_deadline"`
	NarrativeDeadline       time.Duration `yaml:"narrative_deadline"`
	NarrativeFastPathSecs   time.Duration `yaml:"narrative_fast_path_secs"`
	MarketDataCacheTTL      time.Duration `yaml:"market_data_cache_ttl"`
	ContextCacheTTL         time.Duration `yaml:"context_cache_ttl"`
	ProviderOrder           []string      `yaml:"provider_order"`
}

// DefaultRuntimeConfig returns the baked-in defaults from spec.md §5/§6.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		CacheVersion:          "v1",
		SensorFanoutDeadline:  30 * time.Second,
		NarrativeDeadline:     30 * time.Second,
		NarrativeFastPathSecs: 6 * time.Second,
		MarketDataCacheTTL:    5 * time.Minute,
		ContextCacheTTL:       5 * time.Minute,
		ProviderOrder:         []string{"polygon", "finnhub", "yahoo_fallback"},
	}
}

// Load reads a .env file if present (never overriding real env vars), then
// resolves Config from the environment, layering an optional YAML runtime
// config file on top of DefaultRuntimeConfig.
func Load(yamlPath string) (*Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is not an error

	cfg := &Config{
		Environment:   Environment(getEnvDefault("ENVIRONMENT", string(EnvDevelopment))),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		TavilyAPIKey:  os.Getenv("TAVILY_API_KEY"),
		NewsAPIKey:    os.Getenv("NEWS_API_KEY"),
		FinnhubAPIKey: os.Getenv("FINNHUB_API_KEY"),
		PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
		APIKey:        os.Getenv("API_KEY"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisHost:     getEnvDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Runtime:       DefaultRuntimeConfig(),
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", db, err)
		}
		cfg.RedisDB = n
	}

	rl, err := strconv.Atoi(getEnvDefault("RATE_LIMIT_REQUESTS", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}
	cfg.RateLimitRequestsPerMinute = rl

	ttlSecs, err := strconv.Atoi(getEnvDefault("DATA_CACHE_TTL", "3600"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATA_CACHE_TTL: %w", err)
	}
	cfg.DataCacheTTL = time.Duration(ttlSecs) * time.Second

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, nil
			}
			return nil, fmt.Errorf("reading runtime config %s: %w", yamlPath, err)
		}
		runtime := DefaultRuntimeConfig()
		if err := yaml.Unmarshal(data, &runtime); err != nil {
			return nil, fmt.Errorf("parsing runtime config %s: %w", yamlPath, err)
		}
		cfg.Runtime = runtime
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
