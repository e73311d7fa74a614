package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies pending goose migrations from one domain
// directory to the store behind the DSN. Both shared-store startup
// migrations and tenant-store provisioning go through here, the latter
// once per domain directory.
func RunMigrations(dsn, dir string) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	if err := goose.Up(conn, dir); err != nil {
		return fmt.Errorf("apply migrations from %s: %w", dir, err)
	}

	return nil
}
