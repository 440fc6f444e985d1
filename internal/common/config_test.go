package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "SEK", cfg.ReportingCurrency)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 8*time.Second, cfg.Clients.Yahoo.GetTimeout())
	assert.Equal(t, 168*time.Hour, cfg.Auth.GetTokenExpiry())
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.GetInterval())
}

func TestDurationAccessorsFallBackOnGarbage(t *testing.T) {
	yahoo := YahooConfig{Timeout: "not-a-duration"}
	assert.Equal(t, 8*time.Second, yahoo.GetTimeout())

	auth := AuthConfig{TokenExpiry: ""}
	assert.Equal(t, 168*time.Hour, auth.GetTokenExpiry())

	sched := SchedulerConfig{Interval: "1x"}
	assert.Equal(t, 24*time.Hour, sched.GetInterval())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment = "production"
reporting_currency = "USD"

[server]
port = 9000

[storage]
backend = "surrealdb"

[clients.yahoo]
timeout = "3s"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "USD", cfg.ReportingCurrency)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "surrealdb", cfg.Storage.Backend)
	assert.Equal(t, 3*time.Second, cfg.Clients.Yahoo.GetTimeout())
	// Untouched values keep defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("/does/not/exist/folio.toml")
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Server.Port)
}

func TestLoadConfig_BadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is = not [valid"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_ENV", "production")
	t.Setenv("FOLIO_PORT", "8080")
	t.Setenv("FOLIO_STORAGE_BACKEND", "surrealdb")
	t.Setenv("FOLIO_JWT_SECRET", "from-env")
	t.Setenv("FOLIO_REPORTING_CURRENCY", "NOK")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "surrealdb", cfg.Storage.Backend)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "NOK", cfg.ReportingCurrency)
}

func TestEnvOverrides_BadPortIgnored(t *testing.T) {
	t.Setenv("FOLIO_PORT", "not-a-port")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Server.Port)
}
