package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db
  port: 5432
  user: portal
  password: secret
  dbname: portal
  sslmode: disable
redis:
  url: redis://cache:6379/1
jwt:
  secret: s3cr3t
log:
  level: debug
limits:
  daily_upload_bytes: 1048576
  repair_interval: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, int64(1<<20), cfg.Limits.DailyUploadBytes)
	assert.Equal(t, 5*time.Minute, cfg.Limits.RepairInterval)
	assert.Equal(t,
		"host=db port=5432 user=portal password=secret dbname=portal sslmode=disable",
		cfg.Database.DSN())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(50<<20), cfg.Limits.DailyUploadBytes)
	assert.Equal(t, 15*time.Minute, cfg.Limits.RepairInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}
