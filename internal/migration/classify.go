package migration

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/VividCortex/mysqlerr"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/marcboeker/go-duckdb/v2"
	"github.com/mattn/go-sqlite3"
)

// Postgres SQLSTATE codes that mean the object is already there.
const (
	sqlStateDuplicateColumn  = "42701"
	sqlStateDuplicateTable   = "42P07" // also raised for an existing index name
	sqlStateDuplicateObject  = "42710"
	sqlStateInsufficientPriv = "42501"
)

// Classify maps a driver error onto an ErrorKind. Typed driver errors are
// checked first; the message heuristics only apply to errors no driver
// claimed.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLite(sqliteErr)
	}

	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		return classifyDuckDB(duckErr)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return classifyMySQL(myErr)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifySQLState(string(pqErr.Code))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}

	if isConnectionError(err) {
		return KindConnection
	}

	return classifyMessage(err.Error())
}

func classifySQLite(err sqlite3.Error) ErrorKind {
	switch err.Code {
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return KindPermission
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrIoErr, sqlite3.ErrBusy, sqlite3.ErrLocked:
		return KindConnection
	case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrRange:
		return KindSyntaxOrConstraint
	case sqlite3.ErrError:
		// SQLITE_ERROR covers both "duplicate column name: x" and syntax
		// errors; only the message tells them apart.
		if kind := classifyMessage(err.Error()); kind == KindDuplicate {
			return kind
		}
		return KindSyntaxOrConstraint
	default:
		return KindUnknown
	}
}

func classifyDuckDB(err *duckdb.Error) ErrorKind {
	switch err.Type {
	case duckdb.ErrorTypeCatalog:
		if strings.Contains(strings.ToLower(err.Msg), "already exists") {
			return KindDuplicate
		}
		return KindSyntaxOrConstraint
	case duckdb.ErrorTypePermission:
		return KindPermission
	case duckdb.ErrorTypeConnection, duckdb.ErrorTypeNetwork, duckdb.ErrorTypeIO:
		return KindConnection
	case duckdb.ErrorTypeParser, duckdb.ErrorTypeSyntax, duckdb.ErrorTypeBinder,
		duckdb.ErrorTypeConstraint, duckdb.ErrorTypeNotImplemented:
		return KindSyntaxOrConstraint
	default:
		return KindUnknown
	}
}

func classifyMySQL(err *mysql.MySQLError) ErrorKind {
	switch err.Number {
	case mysqlerr.ER_DUP_FIELDNAME, mysqlerr.ER_DUP_KEYNAME, mysqlerr.ER_TABLE_EXISTS_ERROR:
		return KindDuplicate
	case mysqlerr.ER_TABLEACCESS_DENIED_ERROR, mysqlerr.ER_ACCESS_DENIED_ERROR,
		mysqlerr.ER_DBACCESS_DENIED_ERROR, mysqlerr.ER_SPECIFIC_ACCESS_DENIED_ERROR:
		return KindPermission
	case mysqlerr.ER_PARSE_ERROR, mysqlerr.ER_BAD_FIELD_ERROR, mysqlerr.ER_NO_SUCH_TABLE:
		return KindSyntaxOrConstraint
	default:
		return KindUnknown
	}
}

func classifySQLState(code string) ErrorKind {
	switch code {
	case sqlStateDuplicateColumn, sqlStateDuplicateTable, sqlStateDuplicateObject:
		return KindDuplicate
	case sqlStateInsufficientPriv:
		return KindPermission
	}
	if len(code) < 2 {
		return KindUnknown
	}
	switch code[:2] {
	case "08":
		return KindConnection
	case "42", "23", "22":
		return KindSyntaxOrConstraint
	case "28":
		return KindPermission
	default:
		return KindUnknown
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func classifyMessage(msg string) ErrorKind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "duplicate column"),
		strings.Contains(msg, "duplicate key name"),
		strings.Contains(msg, "already exists"):
		return KindDuplicate
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "not authorized"):
		return KindPermission
	case strings.Contains(msg, "syntax error"),
		strings.Contains(msg, "parser error"),
		strings.Contains(msg, "binder error"),
		strings.Contains(msg, "no such column"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "constraint"):
		return KindSyntaxOrConstraint
	default:
		return KindUnknown
	}
}
