package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

// setupSQLiteDB returns a file backed SQLite store holding preset_images(id)
// and selfies(id) without a gender column.
func setupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, q := range []string{
		`CREATE TABLE preset_images (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE selfies (id INTEGER PRIMARY KEY)`,
	} {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}
	return db
}

// setupDuckDB returns an in-memory DuckDB store. Tables carry no keys or
// indexes: DuckDB refuses ALTER TABLE on tables other catalog entries depend
// on.
func setupDuckDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, q := range []string{
		`CREATE TABLE preset_images (id INTEGER)`,
		`CREATE TABLE selfies (id INTEGER)`,
	} {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}
	return db
}

// duckDBSteps adds a column to one table and indexes the other.
func duckDBSteps() []Step {
	return []Step{
		{Statement: "ALTER TABLE selfies ADD COLUMN gender VARCHAR", Mode: ModeTolerateDuplicate, Description: "add column selfies.gender"},
		{Statement: "CREATE INDEX IF NOT EXISTS idx_preset_images_id ON preset_images(id)", Mode: ModeNative, Description: "create index idx_preset_images_id"},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func indexNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}
