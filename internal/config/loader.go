package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "LOANFLOW"

// Defaults applied before any file or environment value.
var defaults = map[string]any{
	"log.level":                  "info",
	"store.kind":                 StoreFile,
	"store.path":                 ".loanflow/sessions",
	"redis.addr":                 "localhost:6379",
	"redis.password":             "",
	"redis.db":                   0,
	"redis.prefix":               "loanflow:session:",
	"redis.ttl":                  "720h",
	"http.port":                  8080,
	"pacing.delay":               "600ms",
	"registry.url":               "",
	"registry.guid":              "",
	"registry.timeout":           "5s",
	"postgres.dsn":               "",
	"encryption.key":             "",
	"encryption.fallback_keys":   []string{},
	"encryption.allow_plaintext": false,
	"rates.file":                 "",
}

// New returns a viper instance with defaults set and LOANFLOW_* environment
// variables bound, e.g. LOANFLOW_STORE_KIND for store.kind.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadEnvFiles loads .env files into the process environment. Missing files
// are skipped; variables already set are not overridden.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads file (optional; when empty, loanflow.yaml in the working
// directory is used if present), then decodes and validates the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("loanflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
