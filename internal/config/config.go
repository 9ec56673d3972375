package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Progress backends.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/quest.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	RoutePath string `env:"ROUTE_PATH" envDefault:"routes.json"`
	Season    string `env:"SEASON"`

	ProgressBackend string `env:"PROGRESS_BACKEND" envDefault:"sqlite"`
	RedisURL        string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix     string `env:"REDIS_PREFIX" envDefault:"quest"`
	PostgresURL     string `env:"POSTGRES_URL"`

	AdminUser         string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	ScanDebounce time.Duration `env:"SCAN_DEBOUNCE" envDefault:"2s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch c.ProgressBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("PROGRESS_BACKEND=postgres needs POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown PROGRESS_BACKEND %q", c.ProgressBackend)
	}
	if c.ScanDebounce < 0 {
		return fmt.Errorf("SCAN_DEBOUNCE must not be negative")
	}
	return nil
}
