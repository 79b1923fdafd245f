package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendFile     = "file" // embedded SQLite under StoreDir
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	StoreBackend string
	StoreDir     string
	RedisAddr    string
	RedisPrefix  string
	DatabaseURL  string
	AMQPURL      string
	AMQPRetry    time.Duration

	LogLevel  string
	LogFormat string
	LogOutput string

	ProviderLatency time.Duration
	ProviderTimeout time.Duration
	CatalogCacheTTL time.Duration
	JWTSecret       string

	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// Load reads an optional .env file and then the process environment.
// A missing .env is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults for unset keys.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := &Config{
		StoreBackend: strings.ToLower(get("STORE_BACKEND", BackendFile)),
		StoreDir:     get("STORE_DIR", ".storefront"),
		RedisAddr:    get("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:  get("REDIS_PREFIX", ""),
		DatabaseURL:  get("DATABASE_URL", ""),
		AMQPURL:      get("AMQP_URL", ""),
		LogLevel:     get("LOG_LEVEL", "info"),
		LogFormat:    get("LOG_FORMAT", "text"),
		LogOutput:    get("LOG_OUTPUT", "stderr"),
		JWTSecret:    get("JWT_SECRET", "changeme"),
	}

	var err error
	if cfg.ProviderLatency, err = parseDuration("PROVIDER_LATENCY", get("PROVIDER_LATENCY", "800ms")); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = parseDuration("PROVIDER_TIMEOUT", get("PROVIDER_TIMEOUT", "10s")); err != nil {
		return nil, err
	}
	if cfg.AMQPRetry, err = parseDuration("AMQP_RETRY_DELAY", get("AMQP_RETRY_DELAY", "2s")); err != nil {
		return nil, err
	}
	if cfg.CatalogCacheTTL, err = parseDuration("CATALOG_CACHE_TTL", get("CATALOG_CACHE_TTL", "1m")); err != nil {
		return nil, err
	}
	if cfg.DeliveryFee, err = parseDecimal("DELIVERY_FEE", get("DELIVERY_FEE", "2.99")); err != nil {
		return nil, err
	}
	if cfg.TaxRate, err = parseDecimal("TAX_RATE", get("TAX_RATE", "0.08")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.ProviderTimeout <= 0 {
		return errors.New("config: PROVIDER_TIMEOUT must be positive")
	}
	if c.DeliveryFee.IsNegative() || c.TaxRate.IsNegative() {
		return errors.New("config: DELIVERY_FEE and TAX_RATE must not be negative")
	}
	return nil
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}

func parseDecimal(key, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
