package config_test

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/loanflow/internal/config"
	"github.com/aretw0/loanflow/pkg/quote"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newKey(t *testing.T) string {
	k := make([]byte, 32)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(k)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	assert.Equal(t, config.StoreFile, cfg.Store.Kind)
	assert.Equal(t, ".loanflow/sessions", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 600*time.Millisecond, cfg.Pacing.Delay)
	assert.Equal(t, 720*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
	assert.False(t, cfg.Encryption.Enabled())
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "loanflow.yaml", `
store:
  kind: redis
redis:
  addr: cache:6379
  ttl: 24h
pacing:
  delay: 0s
log:
  level: debug
`)
	cfg, err := config.Load(config.New(), path)
	require.NoError(t, err)
	assert.Equal(t, config.StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, time.Duration(0), cfg.Pacing.Delay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NotNil(t, cfg.Logger())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "loanflow.yaml", "http:\n  port: 9000\n")
	t.Setenv("LOANFLOW_HTTP_PORT", "9100")
	t.Setenv("LOANFLOW_STORE_KIND", "memory")
	t.Setenv("LOANFLOW_REGISTRY_TIMEOUT", "2s")

	cfg, err := config.Load(config.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, config.StoreMemory, cfg.Store.Kind)
	assert.Equal(t, 2*time.Second, cfg.Registry.Timeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"ok", func(*config.Config) {}, ""},
		{"unknown store", func(c *config.Config) { c.Store.Kind = "s3" }, "unknown store.kind"},
		{"file without path", func(c *config.Config) { c.Store.Path = "" }, "store.path"},
		{"redis without addr", func(c *config.Config) {
			c.Store.Kind = config.StoreRedis
			c.Redis.Addr = ""
		}, "redis.addr"},
		{"bad port", func(c *config.Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"negative delay", func(c *config.Config) { c.Pacing.Delay = -time.Second }, "pacing.delay"},
		{"bad key", func(c *config.Config) { c.Encryption.Key = "c2hvcnQ=" }, "encryption.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Store: config.StoreConfig{Kind: config.StoreFile, Path: "sessions"},
				HTTP:  config.HTTPConfig{Port: 8080},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEncryption_Middleware(t *testing.T) {
	t.Setenv("LOANFLOW_ENCRYPTION_KEY", newKey(t))
	t.Setenv("LOANFLOW_ENCRYPTION_FALLBACK_KEYS", newKey(t)+","+newKey(t))

	cfg, err := config.Load(config.New(), writeFile(t, "loanflow.yaml", "store:\n  kind: memory\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Encryption.Enabled())
	assert.Len(t, cfg.Encryption.FallbackKeys, 2)

	mw, err := cfg.Encryption.Middleware()
	require.NoError(t, err)
	assert.NotNil(t, mw)

	cfg.Encryption.FallbackKeys = []string{"bad"}
	_, err = cfg.Encryption.Middleware()
	assert.ErrorContains(t, err, "fallback_keys[0]")
}

func TestRates_Table(t *testing.T) {
	table, err := config.RatesConfig{}.Table()
	require.NoError(t, err)
	assert.Equal(t, quote.DefaultRates(), table)

	path := writeFile(t, "rates.yaml", "rates:\n  vehicle:\n    new: 5.5\n")
	table, err = config.RatesConfig{File: path}.Table()
	require.NoError(t, err)
	assert.InDelta(t, 5.5, table[quote.AssetVehicle][quote.ConditionNew], 1e-9)
}

func TestLoadEnvFiles(t *testing.T) {
	const key = "LOANFLOW_TEST_FROM_DOTENV"
	t.Cleanup(func() { os.Unsetenv(key) })
	path := writeFile(t, ".env", key+"=hello\n")

	require.NoError(t, config.LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "hello", os.Getenv(key))
}
