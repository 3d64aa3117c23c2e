package database

import (
	"context"
	"database/sql"
	"fmt"

	"schemarunner/internal/config"
	"schemarunner/internal/migration"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

// InitializeWithConfig opens and pings the configured database. File backed
// drivers get their directory created first.
func InitializeWithConfig(ctx context.Context, cfg *config.Config) (*sql.DB, migration.Dialect, error) {
	dialect, err := migration.DialectForDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, "", err
	}

	dsn := cfg.DatabaseDSN
	if cfg.UsesFile() {
		if err := cfg.EnsureDatabaseDir(); err != nil {
			return nil, "", fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.DatabasePath
	}
	if dsn == "" {
		return nil, "", fmt.Errorf("database.dsn is required for driver %s", cfg.DatabaseDriver)
	}

	db, err := sql.Open(driverName(cfg.DatabaseDriver), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, dialect, nil
}

// driverName maps config aliases onto registered database/sql driver names.
func driverName(driver string) string {
	switch driver {
	case "sqlite":
		return "sqlite3"
	case "postgresql":
		return "postgres"
	default:
		return driver
	}
}
