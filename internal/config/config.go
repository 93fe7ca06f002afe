// Package config reads process settings for the arbor CLI from the
// environment. Flags override these values.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/caarlos0/env/v11"
)

// Config holds the environment-provided settings.
type Config struct {
	LogLevel     slog.Level     `env:"ARBOR_LOG_LEVEL"     envDefault:"INFO"`
	LogFormat    logging.Format `env:"ARBOR_LOG_FORMAT"    envDefault:"text"`
	HistoryLimit int            `env:"ARBOR_HISTORY_LIMIT" envDefault:"1000"`

	LayoutMaxIterations int    `env:"ARBOR_LAYOUT_MAX_ITERATIONS"`
	LayoutSeed          *int64 `env:"ARBOR_LAYOUT_SEED"`

	RedisAddr   string        `env:"ARBOR_REDIS_ADDR"`
	RedisPrefix string        `env:"ARBOR_REDIS_PREFIX" envDefault:"arbor:project:"`
	ProjectTTL  time.Duration `env:"ARBOR_PROJECT_TTL"`
	LockTTL     time.Duration `env:"ARBOR_LOCK_TTL"     envDefault:"30s"`

	// EncryptionKey is a base64 AES-256 key; stored projects are sealed when set.
	EncryptionKey string   `env:"ARBOR_ENCRYPTION_KEY"`
	Redact        []string `env:"ARBOR_REDACT"`

	MetricsEnabled bool `env:"ARBOR_METRICS"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HistoryLimit < 1 {
		return Config{}, fmt.Errorf("parse env: ARBOR_HISTORY_LIMIT must be positive, got %d", cfg.HistoryLimit)
	}
	if cfg.LayoutMaxIterations < 0 {
		return Config{}, fmt.Errorf("parse env: ARBOR_LAYOUT_MAX_ITERATIONS must not be negative, got %d", cfg.LayoutMaxIterations)
	}
	return cfg, nil
}
