// Package config содержит логику чтения конфигурации клиента витрины и тестового бэкенда.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Драйверы долговременного хранилища.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config содержит параметры конфигурации.
type Config struct {
	APIBaseURL     string        `env:"API_BASE_URL"`
	MockMode       bool          `env:"MOCK_MODE"`
	MockLatency    time.Duration `env:"MOCK_LATENCY"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	RetryMax       int           `env:"REQUEST_RETRY_MAX"`
	StorageDriver  string        `env:"STORAGE_DRIVER"`
	StorageDSN     string        `env:"STORAGE_DSN"`
	RunAddress     string        `env:"RUN_ADDRESS"`
	TokenSecret    string        `env:"TOKEN_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL"`
	RateLimit      float64       `env:"RATE_LIMIT"`
	LogLevel       string        `env:"LOG_LEVEL"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:4000/api",
		MockLatency:    300 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
		RetryMax:       2,
		StorageDriver:  DriverSQLite,
		StorageDSN:     "storefront.db",
		RunAddress:     "localhost:4000",
		TokenSecret:    "storefront-secret",
		TokenTTL:       2 * time.Hour,
		RateLimit:      50,
		LogLevel:       "info",
	}
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := Default()

	flag.StringVar(&cfg.APIBaseURL, "u", cfg.APIBaseURL, "backend base URL")
	flag.BoolVar(&cfg.MockMode, "m", cfg.MockMode, "serve catalog from in-memory fixtures")
	flag.DurationVar(&cfg.MockLatency, "l", cfg.MockLatency, "simulated latency in mock mode")
	flag.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "backend request timeout")
	flag.StringVar(&cfg.StorageDriver, "s", cfg.StorageDriver, "durable storage driver: memory, sqlite, postgres, redis")
	flag.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "durable storage DSN")
	flag.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "address and port for fixture HTTP server")
	flag.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	flag.Parse()

	if err := FromEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv накладывает на cfg значения из .env и переменных окружения и проверяет результат.
// Незаданные переменные не меняют текущие значения.
func FromEnv(cfg *Config) error {
	// .env необязателен
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return cfg.Validate()
}

// Validate проверяет согласованность параметров.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	if c.StorageDriver != DriverMemory && c.StorageDSN == "" {
		return errors.New("storage DSN is required")
	}

	if !c.MockMode && c.APIBaseURL == "" {
		return errors.New("API base URL is required in live mode")
	}

	if c.MockLatency < 0 {
		return errors.New("mock latency must not be negative")
	}

	return nil
}
