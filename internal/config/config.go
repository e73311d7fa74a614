package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	// SharedDatabaseURL points at the shared store holding tenant
	// metadata, identity, and reservations.
	SharedDatabaseURL string
	// StoreAdminDatabaseURL is the privileged DSN used by provisioning to
	// create tenant databases and schemas on the store host.
	StoreAdminDatabaseURL string
	// StoreDatabaseURL is the base application DSN for tenant stores; the
	// database name in its path is replaced per registration.
	StoreDatabaseURL string

	RedisAddr     string
	RedisPassword string

	TemporalAddress       string
	TemporalNamespace     string
	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string

	HTTPListenAddr string
	MetricsAddr    string
	LogLevel       string
	ServiceName    string

	// Environment selects production or development host parsing rules.
	Environment string

	SharedMigrationsDir string
	TenantMigrationsDir string
}

func Load() (*Config, error) {
	cfg := &Config{
		SharedDatabaseURL:     getEnv("SHARED_DATABASE_URL", ""),
		StoreAdminDatabaseURL: getEnv("STORE_ADMIN_DATABASE_URL", ""),
		StoreDatabaseURL:      getEnv("STORE_DATABASE_URL", ""),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		TemporalAddress:       getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:     getEnv("TEMPORAL_NAMESPACE", "default"),
		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),
		HTTPListenAddr:        getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsAddr:           getEnv("METRICS_ADDR", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ServiceName:           getEnv("SERVICE_NAME", ""),
		Environment:           getEnv("ENVIRONMENT", "production"),
		SharedMigrationsDir:   getEnv("SHARED_MIGRATIONS_DIR", "migrations/shared"),
		TenantMigrationsDir:   getEnv("TENANT_MIGRATIONS_DIR", "migrations/tenant"),
	}

	return cfg, nil
}

// Development reports whether relaxed development host parsing is enabled.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Validate checks that the fields the given service depends on are set.
func (c *Config) Validate(service string) error {
	var missing []string

	required := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch service {
	case "saas-api":
		required("SHARED_DATABASE_URL", c.SharedDatabaseURL)
		required("STORE_DATABASE_URL", c.StoreDatabaseURL)
		required("REDIS_ADDR", c.RedisAddr)
		required("TEMPORAL_ADDRESS", c.TemporalAddress)
		required("HTTP_LISTEN_ADDR", c.HTTPListenAddr)
	case "worker":
		required("SHARED_DATABASE_URL", c.SharedDatabaseURL)
		required("STORE_ADMIN_DATABASE_URL", c.StoreAdminDatabaseURL)
		required("STORE_DATABASE_URL", c.StoreDatabaseURL)
		required("REDIS_ADDR", c.RedisAddr)
		required("TEMPORAL_ADDRESS", c.TemporalAddress)
	}

	if (c.TemporalTLSCert == "") != (c.TemporalTLSKey == "") {
		return fmt.Errorf("TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set or both be empty")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration for %s: %s", service, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
