package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStorePool opens a pool against a tenant store. For schema stores,
// schema is set as the connection search_path so every connection in the
// pool lands in the tenant's schema.
func NewStorePool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store db config: %w", err)
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create store db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping store db: %w", err)
	}

	return pool, nil
}

// WithDatabase rewrites the database name in a Postgres URL, keeping
// host, credentials, and options intact.
func WithDatabase(databaseURL, name string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	u.Path = "/" + name
	return u.String(), nil
}

// DatabaseName extracts the database name from a Postgres URL.
func DatabaseName(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", fmt.Errorf("database url %s has no database name", u.Redacted())
	}
	return name, nil
}

// StoreDSN builds the DSN for a tenant store. For schema stores the
// search_path is pinned via connection options so plain database/sql
// consumers (migrations) land in the right schema too.
func StoreDSN(baseURL, databaseName, schemaName string) (string, error) {
	dsn, err := WithDatabase(baseURL, databaseName)
	if err != nil {
		return "", err
	}
	if schemaName == "" {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse store dsn: %w", err)
	}
	q := u.Query()
	q.Set("options", "-csearch_path="+schemaName)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
