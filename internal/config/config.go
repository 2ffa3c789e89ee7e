// Package config loads loanflow settings from a YAML file, .env files and
// LOANFLOW_* environment variables. Command line flags bound onto the same
// viper instance take precedence over all of them.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/persistence/middleware"
	"github.com/aretw0/loanflow/pkg/quote"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Pacing     PacingConfig     `mapstructure:"pacing"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Rates      RatesConfig      `mapstructure:"rates"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StoreConfig struct {
	Kind string `mapstructure:"kind"`
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type PacingConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// RegistryConfig selects the business registry. An empty GUID uses the
// built-in fixture registry.
type RegistryConfig struct {
	URL     string        `mapstructure:"url"`
	GUID    string        `mapstructure:"guid"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PostgresConfig enables the Postgres outbox for submissions and leads when
// DSN is set.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// EncryptionConfig holds base64 AES-256 keys. Encryption is off without Key.
type EncryptionConfig struct {
	Key            string   `mapstructure:"key"`
	FallbackKeys   []string `mapstructure:"fallback_keys"`
	AllowPlaintext bool     `mapstructure:"allow_plaintext"`
}

type RatesConfig struct {
	File string `mapstructure:"file"`
}

// Logger builds the application logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	return logging.New(logging.ParseLevel(c.Log.Level))
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the file store"))
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.kind %q (want memory, file or redis)", c.Store.Kind))
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.Pacing.Delay < 0 {
		errs = append(errs, errors.New("pacing.delay must not be negative"))
	}
	if c.Encryption.Key != "" {
		if _, err := c.Encryption.Middleware(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether snapshots should be sealed.
func (e EncryptionConfig) Enabled() bool {
	return e.Key != ""
}

// Middleware decodes the keys into a snapshot encryption middleware.
func (e EncryptionConfig) Middleware() (middleware.Middleware, error) {
	active, err := middleware.ParseKey(e.Key)
	if err != nil {
		return nil, fmt.Errorf("encryption.key: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active, AllowPlaintext: e.AllowPlaintext}
	for i, k := range e.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(cfg)
}

// Table returns the rate table: the defaults merged with the override file.
func (r RatesConfig) Table() (quote.RateTable, error) {
	return quote.LoadRates(r.File)
}
