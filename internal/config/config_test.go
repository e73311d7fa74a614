package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptySharedDBURL(t *testing.T) {
	// Config loads successfully even without SHARED_DATABASE_URL set.
	os.Unsetenv("SHARED_DATABASE_URL")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.SharedDatabaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("TEMPORAL_ADDRESS")
	os.Unsetenv("TEMPORAL_NAMESPACE")
	os.Unsetenv("HTTP_LISTEN_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("ENVIRONMENT")
	os.Unsetenv("SHARED_MIGRATIONS_DIR")
	os.Unsetenv("TENANT_MIGRATIONS_DIR")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "localhost:7233", cfg.TemporalAddress)
	assert.Equal(t, "default", cfg.TemporalNamespace)
	assert.Equal(t, ":8080", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "migrations/shared", cfg.SharedMigrationsDir)
	assert.Equal(t, "migrations/tenant", cfg.TenantMigrationsDir)
	assert.False(t, cfg.Development())
}

func TestLoad_AllEnvVars(t *testing.T) {
	t.Setenv("SHARED_DATABASE_URL", "postgres://shared:5432/registry")
	t.Setenv("STORE_ADMIN_DATABASE_URL", "postgres://admin@stores:5432/postgres")
	t.Setenv("STORE_DATABASE_URL", "postgres://app@stores:5432/postgres")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("TEMPORAL_ADDRESS", "temporal.example.com:7233")
	t.Setenv("HTTP_LISTEN_ADDR", ":7071")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://shared:5432/registry", cfg.SharedDatabaseURL)
	assert.Equal(t, "postgres://admin@stores:5432/postgres", cfg.StoreAdminDatabaseURL)
	assert.Equal(t, "postgres://app@stores:5432/postgres", cfg.StoreDatabaseURL)
	assert.Equal(t, "redis.example.com:6379", cfg.RedisAddr)
	assert.Equal(t, "temporal.example.com:7233", cfg.TemporalAddress)
	assert.Equal(t, ":7071", cfg.HTTPListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Development())
}

func TestValidate_API_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("saas-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHARED_DATABASE_URL")
	assert.Contains(t, err.Error(), "STORE_DATABASE_URL")
	assert.Contains(t, err.Error(), "TEMPORAL_ADDRESS")
	assert.Contains(t, err.Error(), "HTTP_LISTEN_ADDR")
}

func TestValidate_Worker_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHARED_DATABASE_URL")
	assert.Contains(t, err.Error(), "STORE_ADMIN_DATABASE_URL")
	assert.Contains(t, err.Error(), "TEMPORAL_ADDRESS")
}

func TestValidate_TLS_MismatchedCertKey(t *testing.T) {
	cfg := &Config{
		SharedDatabaseURL: "postgres://localhost/registry",
		StoreDatabaseURL:  "postgres://localhost/postgres",
		RedisAddr:         "localhost:6379",
		TemporalAddress:   "localhost:7233",
		HTTPListenAddr:    ":8080",
		TemporalTLSCert:   "/path/to/cert.pem",
	}
	err := cfg.Validate("saas-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set")
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := &Config{
		SharedDatabaseURL:     "postgres://localhost/registry",
		StoreAdminDatabaseURL: "postgres://admin@localhost/postgres",
		StoreDatabaseURL:      "postgres://app@localhost/postgres",
		RedisAddr:             "localhost:6379",
		TemporalAddress:       "localhost:7233",
		HTTPListenAddr:        ":8080",
		TemporalTLSCert:       "/path/to/cert.pem",
		TemporalTLSKey:        "/path/to/key.pem",
	}

	assert.NoError(t, cfg.Validate("saas-api"))
	assert.NoError(t, cfg.Validate("worker"))
}
