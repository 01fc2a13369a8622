package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "dataset.yaml", cfg.Dataset.Manifest)
	assert.Equal(t, "America/Los_Angeles", cfg.Region.Timezone)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, time.Hour, cfg.Notify.Interval())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	raw := `
store:
  driver: postgres
  database_url: postgres://localhost/curbside
server:
  port: 9090
  allowed_origins:
    - https://example.com
notify:
  concurrency: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(raw), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/curbside", cfg.Store.DatabaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 8, cfg.Notify.Concurrency)

	// Unset sections keep their defaults.
	assert.Equal(t, "America/Los_Angeles", cfg.Region.Timezone)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CURBSIDE_STORE_DRIVER", "postgres")
	t.Setenv("CURBSIDE_NOTIFY_SIMPLEPUSH_KEY", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "abc123", cfg.Notify.SimplePushKey)
}

func TestRegionLocation(t *testing.T) {
	loc, err := RegionConfig{Timezone: "America/Los_Angeles"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())

	_, err = RegionConfig{Timezone: "Mars/Olympus"}.Location()
	require.Error(t, err)
}
