package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "JWT_SECRET", "DATABASE_URL", "REDIS_ADDR", "REDIS_DB", "LEDGER_DRIVER", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 5m
sqlite:
  path: data/scamslayer.db
auth:
  jwt_secret: s3cret
attempts:
  idle_ttl: 30m
  sweep_interval: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, LedgerSQLite, cfg.Ledger.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3, cfg.Progression.MaxRetries)
	assert.Equal(t, 30*time.Minute, TTLDuration(cfg.Attempts.IdleTTL, time.Hour))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, LedgerMemory, cfg.Ledger.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("REDIS_ADDR", "redis:6379")

	path := writeFile(t, "config.yaml", "server:\n  port: \"9090\"\nauth:\n  jwt_secret: from-file\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, LedgerPostgres, cfg.Ledger.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "ledger:\n  driver: postgres\n")
	_, err := Load(path)
	assert.Error(t, err)

	path = writeFile(t, "config2.yaml", "ledger:\n  driver: mongo\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "SCAMSLAYER_TEST_VALUE=hello\n")
	t.Setenv("SCAMSLAYER_TEST_VALUE", "")
	os.Unsetenv("SCAMSLAYER_TEST_VALUE")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("SCAMSLAYER_TEST_VALUE"))
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("bogus", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
}
