package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 6, cfg.App.CodeLength)
	assert.Equal(t, 10, cfg.App.MaxAttempts)
	assert.Equal(t, 30, cfg.App.DefaultValidity)
	assert.Equal(t, "IN", cfg.App.DefaultLocation)
	assert.Empty(t, cfg.Telemetry.Endpoint)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.Timeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("SHORT_CODE_LENGTH", "8")
	t.Setenv("DEFAULT_VALIDITY_MINUTES", "120")
	t.Setenv("TELEMETRY_ENDPOINT", "http://collector.local/logs")
	t.Setenv("TELEMETRY_TIMEOUT", "500ms")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 8, cfg.App.CodeLength)
	assert.Equal(t, 120, cfg.App.DefaultValidity)
	assert.Equal(t, "http://collector.local/logs", cfg.Telemetry.Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Telemetry.Timeout)
	assert.Equal(t, "cache:6379", cfg.Redis.RedisAddr())
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("SHORT_CODE_LENGTH", "six")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.App.CodeLength)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown backend", "STORE_BACKEND", "cassandra"},
		{"code too long", "SHORT_CODE_LENGTH", "65"},
		{"zero attempts", "SHORT_CODE_MAX_ATTEMPTS", "0"},
		{"negative validity", "DEFAULT_VALIDITY_MINUTES", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "links", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=links sslmode=disable", db.DatabaseDSN())
}
