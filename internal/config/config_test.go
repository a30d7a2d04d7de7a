package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SERVER_HOST", "SERVER_PORT", "LOG_LEVEL", "ADMIN_PASSWORD",
	"STORE_DRIVER", "SNAPSHOT_CODEC", "STORE_TIMEOUT", "SQLITE_PATH", "TICKET_CODE_PREFIX",
	"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RATE_LIMIT_PER_MINUTE", "IDEMPOTENCY_TTL",
}

// clearEnv blanks every key so the host environment cannot leak in.
func clearEnv(t *testing.T) string {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestNew_Defaults(t *testing.T) {
	cfg, err := New(clearEnv(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Server.AdminPassword)
	assert.Equal(t, 120, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, 2*time.Hour, cfg.Server.IdempotencyTTL)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "json", cfg.Store.Codec)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "tixgate.db", cfg.Store.SQLitePath)
	assert.Equal(t, "BUTTERFLY-", cfg.Ledger.CodePrefix)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestNew_Overrides(t *testing.T) {
	envFile := clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("SNAPSHOT_CODEC", "cbor")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("POSTGRES_USER", "tix")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "tixgate")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := New(envFile)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "cbor", cfg.Store.Codec)
	assert.Equal(t, 750*time.Millisecond, cfg.Store.Timeout)
	assert.Equal(t, "tixgate", cfg.Postgres.Name)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestNew_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":          {"SERVER_PORT": "http"},
		"log level":     {"LOG_LEVEL": "chatty"},
		"driver":        {"STORE_DRIVER": "mongo"},
		"codec":         {"SNAPSHOT_CODEC": "xml"},
		"timeout":       {"STORE_TIMEOUT": "soon"},
		"postgres user": {"STORE_DRIVER": "postgres"},
		"redis addr":    {"STORE_DRIVER": "redis"},
		"ttl":           {"IDEMPOTENCY_TTL": "1 day"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			envFile := clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := New(envFile)
			assert.Error(t, err)
		})
	}
}

func TestNew_EnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range []string{"STORE_DRIVER", "ADMIN_PASSWORD"} {
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=memory\nADMIN_PASSWORD=letmein\n"), 0o600))

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "letmein", cfg.Server.AdminPassword)
}
