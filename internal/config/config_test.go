package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "", cfg.Scrape.Cron)
	require.Equal(t, 4, cfg.Scrape.ResultBuffer)
	require.Equal(t, 8, cfg.Scrape.CommandBuffer)
	require.Equal(t, 1500*time.Millisecond, cfg.Scrape.RequestDelay)
	require.Equal(t, 5*time.Second, cfg.Scrape.RequestTimeout)
	require.False(t, cfg.Scrape.LegacyLindholmen)
	require.Equal(t, 20*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 64, cfg.Cache.Capacity)
	require.Equal(t, "[::]:20666", cfg.Server.Listen)
	require.Equal(t, 60*time.Minute, cfg.DB.MaxConnLifetime())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  dsn: postgres://lunch@localhost/lunch
scrape:
  cron: "0 10 * * 1-5"
  request_delay: 2s
cache:
  ttl: 5m
  path: /tmp/golunch-cache
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://lunch@localhost/lunch", cfg.DB.DSN)
	require.Equal(t, "0 10 * * 1-5", cfg.Scrape.Cron)
	require.Equal(t, 2*time.Second, cfg.Scrape.RequestDelay)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "/tmp/golunch-cache", cfg.Cache.Path)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOLUNCH_DB_DSN", "postgres://env@localhost/lunch")
	t.Setenv("GOLUNCH_CACHE_TTL", "30m")
	t.Setenv("GOLUNCH_SERVER_LISTEN", "127.0.0.1:8080")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "postgres://env@localhost/lunch", cfg.DB.DSN)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scrape:
  result_buffer: 0
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "result_buffer")
}

func TestValidateRejectsNegativeTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  ttl: -1m
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache.ttl")
}
