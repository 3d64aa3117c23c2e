package migration

import "fmt"

// Dialect is the SQL flavour of the connected store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectDuckDB   Dialect = "duckdb"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "duckdb":
		return DialectDuckDB, nil
	case "mysql":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// indexExistsQuery returns a query counting indexes with the given name.
func (d Dialect) indexExistsQuery() string {
	switch d {
	case DialectDuckDB:
		return `SELECT COUNT(*) FROM duckdb_indexes() WHERE index_name = ?`
	case DialectMySQL:
		return `SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND index_name = ?`
	case DialectPostgres:
		return `SELECT COUNT(*) FROM pg_indexes WHERE indexname = $1`
	default:
		return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`
	}
}
