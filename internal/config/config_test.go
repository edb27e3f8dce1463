package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"REDIS_REST_URL", "REDIS_REST_TOKEN",
		"KV_REST_URL", "KV_REST_TOKEN",
		"RATE_LIMIT_STORE_TIMEOUT_MS", "SERVER_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearStoreEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.False(t, cfg.Store.Redis.Configured())
	assert.False(t, cfg.Store.RedisREST.Configured())
	assert.False(t, cfg.Store.KVREST.Configured())
}

func TestLoad_ReadsBackendCredentials(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_REST_URL", "https://redis.example.com")
	t.Setenv("REDIS_REST_TOKEN", "secret")
	t.Setenv("RATE_LIMIT_STORE_TIMEOUT_MS", "1500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Store.Redis.Configured())
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.True(t, cfg.Store.RedisREST.Configured())
	assert.Equal(t, 1500*time.Millisecond, cfg.Store.Timeout)
}

func TestLoad_RESTPairRequiresBothValues(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("KV_REST_URL", "https://kv.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Store.KVREST.Configured())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)

	clearStoreEnv(t)
	t.Setenv("RATE_LIMIT_STORE_TIMEOUT_MS", "-5")

	_, err = Load()
	assert.Error(t, err)
}
