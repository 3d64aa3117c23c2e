package migration

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/VividCortex/mysqlerr"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},

		{"mysql duplicate column", &mysql.MySQLError{Number: mysqlerr.ER_DUP_FIELDNAME}, KindDuplicate},
		{"mysql duplicate key name", &mysql.MySQLError{Number: mysqlerr.ER_DUP_KEYNAME}, KindDuplicate},
		{"mysql table access denied", &mysql.MySQLError{Number: mysqlerr.ER_TABLEACCESS_DENIED_ERROR}, KindPermission},
		{"mysql parse error", &mysql.MySQLError{Number: mysqlerr.ER_PARSE_ERROR}, KindSyntaxOrConstraint},
		{"mysql duplicate entry is not a schema duplicate", &mysql.MySQLError{Number: mysqlerr.ER_DUP_ENTRY}, KindUnknown},
		{"mysql invalid connection", mysql.ErrInvalidConn, KindConnection},

		{"pq duplicate column", &pq.Error{Code: "42701"}, KindDuplicate},
		{"pq duplicate relation", &pq.Error{Code: "42P07"}, KindDuplicate},
		{"pq insufficient privilege", &pq.Error{Code: "42501"}, KindPermission},
		{"pq undefined column", &pq.Error{Code: "42703"}, KindSyntaxOrConstraint},
		{"pq connection failure", &pq.Error{Code: "08006"}, KindConnection},

		{"pgx duplicate object", &pgconn.PgError{Code: "42710"}, KindDuplicate},
		{"pgx syntax error", &pgconn.PgError{Code: "42601"}, KindSyntaxOrConstraint},
		{"pgx invalid authorization", &pgconn.PgError{Code: "28000"}, KindPermission},

		{"duckdb duplicate column", &duckdb.Error{Type: duckdb.ErrorTypeCatalog, Msg: "Catalog Error: Column with name gender already exists!"}, KindDuplicate},
		{"duckdb missing table", &duckdb.Error{Type: duckdb.ErrorTypeCatalog, Msg: "Catalog Error: Table with name x does not exist!"}, KindSyntaxOrConstraint},
		{"duckdb parser", &duckdb.Error{Type: duckdb.ErrorTypeParser, Msg: "Parser Error: syntax error at or near \"INDX\""}, KindSyntaxOrConstraint},
		{"duckdb permission", &duckdb.Error{Type: duckdb.ErrorTypePermission, Msg: "Permission Error: read-only"}, KindPermission},

		{"bad connection", driver.ErrBadConn, KindConnection},
		{"connection done", sql.ErrConnDone, KindConnection},
		{"deadline", context.DeadlineExceeded, KindConnection},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindConnection},

		{"message duplicate column", errors.New("duplicate column name: gender"), KindDuplicate},
		{"message already exists", errors.New("index idx_selfies_gender already exists"), KindDuplicate},
		{"message permission denied", errors.New("permission denied for table selfies"), KindPermission},
		{"message syntax", errors.New(`near "INDX": syntax error`), KindSyntaxOrConstraint},
		{"message unknown", errors.New("disk quota exceeded"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassify_Wrapped(t *testing.T) {
	err := fmt.Errorf("exec failed: %w", &mysql.MySQLError{Number: mysqlerr.ER_DUP_FIELDNAME})
	assert.Equal(t, KindDuplicate, Classify(err))
}

func TestClassify_SQLite(t *testing.T) {
	db := setupSQLiteDB(t)

	_, err := db.Exec(`ALTER TABLE selfies ADD COLUMN gender TEXT`)
	require.NoError(t, err)

	_, err = db.Exec(`ALTER TABLE selfies ADD COLUMN gender TEXT`)
	require.Error(t, err)
	assert.Equal(t, KindDuplicate, Classify(err))

	_, err = db.Exec(`CREATE INDEX idx_selfies_gender ON selfies(gender)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE INDEX idx_selfies_gender ON selfies(gender)`)
	require.Error(t, err)
	assert.Equal(t, KindDuplicate, Classify(err))

	_, err = db.Exec(`CREATE INDEX idx_selfies_missing ON selfies(missing)`)
	require.Error(t, err)
	assert.Equal(t, KindSyntaxOrConstraint, Classify(err))
}

func TestStepError(t *testing.T) {
	cause := errors.New("boom")
	err := &StepError{
		Index: 1,
		Step:  Step{Statement: "ALTER TABLE selfies ADD COLUMN x TEXT", Description: "add column selfies.x"},
		Kind:  KindUnknown,
		Err:   cause,
	}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "step 2 (add column selfies.x)")
	assert.Contains(t, err.Error(), "ALTER TABLE selfies ADD COLUMN x TEXT")
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(cause))
}
