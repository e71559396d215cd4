package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfig, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "rosterApp", cfg.Server.AppName)
	assert.Equal(t, 20, cfg.Server.DefaultPageSize)
	assert.Equal(t, 2000, cfg.Server.MaxPageSize)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	yml := `
server:
  addr: ":9090"
  defaultPageSize: 50
database:
  path: /var/lib/roster/data.db
redis:
  addr: localhost:6379
  ttl: 30s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv(EnvAddr, ":7070")
	t.Setenv(EnvRedisDB, "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "env overrides file")
	assert.Equal(t, 50, cfg.Server.DefaultPageSize)
	assert.Equal(t, 2000, cfg.Server.MaxPageSize, "unset keys keep defaults")
	assert.Equal(t, "/var/lib/roster/data.db", cfg.Database.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv(EnvRedisTTL, "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvRedisTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.DefaultPageSize = 0
	cfg.Database.Path = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaultPageSize")
	assert.Contains(t, err.Error(), "database.path")
}
