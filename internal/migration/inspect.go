package migration

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the read side of a connection. Implemented by *sql.DB and
// *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// StepStatus reports whether the object a step creates is present.
type StepStatus struct {
	Step    Step   `json:"step"`
	Target  Target `json:"target"`
	Known   bool   `json:"known"`
	Present bool   `json:"present"`
}

// Inspector checks a store for the objects steps create.
type Inspector struct {
	dialect  Dialect
	classify func(error) ErrorKind
}

// NewInspector creates an inspector for the given dialect.
func NewInspector(dialect Dialect) *Inspector {
	return &Inspector{dialect: dialect, classify: Classify}
}

// Inspect returns one status per step. Steps that neither add a column nor
// create an index are reported with Known = false.
func (in *Inspector) Inspect(ctx context.Context, q Querier, steps []Step) ([]StepStatus, error) {
	statuses := make([]StepStatus, 0, len(steps))
	for _, step := range steps {
		st := StepStatus{Step: step, Target: TargetOf(step.Statement)}

		var err error
		switch st.Target.Kind {
		case TargetColumn:
			st.Known = true
			st.Present, err = in.columnExists(ctx, q, st.Target.Table, st.Target.Column)
		case TargetIndex:
			st.Known = true
			st.Present, err = in.indexExists(ctx, q, st.Target.Index)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", step.Description, err)
		}

		statuses = append(statuses, st)
	}
	return statuses, nil
}

// columnExists selects the column from an empty result set. A binder or
// syntax error means the column (or its table) is missing; anything else is
// a real failure.
func (in *Inspector) columnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE 1 = 0", column, table)
	rows, err := q.QueryContext(ctx, query)
	if err == nil {
		err = rows.Err()
		rows.Close()
	}
	if err == nil {
		return true, nil
	}
	if in.classify(err) == KindSyntaxOrConstraint {
		return false, nil
	}
	return false, err
}

func (in *Inspector) indexExists(ctx context.Context, q Querier, index string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, in.dialect.indexExistsQuery(), index).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
