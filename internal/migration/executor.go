package migration

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// Execer is the minimal handle needed to apply DDL. Implemented by *sql.DB,
// *sql.Tx and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Executor applies steps one at a time and stops at the first fatal error.
type Executor struct {
	logger   zerolog.Logger
	classify func(error) ErrorKind
	timeout  time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithStatementTimeout bounds every statement. Zero means no bound.
func WithStatementTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithClassifier replaces Classify.
func WithClassifier(fn func(error) ErrorKind) ExecutorOption {
	return func(e *Executor) {
		e.classify = fn
	}
}

// NewExecutor creates a new migration executor
func NewExecutor(logger zerolog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:   logger,
		classify: Classify,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run applies steps in order. On a fatal error it returns the results of the
// steps before the failing one together with a *StepError; the failing step
// and everything after it are not recorded. Applied steps are never rolled
// back.
func (e *Executor) Run(ctx context.Context, exec Execer, steps []Step) ([]Result, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	results := make([]Result, 0, len(steps))
	for i, step := range steps {
		res, err := e.apply(ctx, exec, i, len(steps), step)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Executor) apply(ctx context.Context, exec Execer, i, total int, step Step) (Result, error) {
	log := e.logger.With().
		Int("step", i+1).
		Int("total", total).
		Str("description", step.Description).
		Stringer("mode", step.Mode).
		Logger()

	log.Debug().Str("statement", step.Statement).Msg("executing statement")

	stmtCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		stmtCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	_, err := exec.ExecContext(stmtCtx, step.Statement)
	elapsed := time.Since(start)

	if err == nil {
		log.Info().Dur("elapsed", elapsed).Msg("applied")
		return Result{Step: step, Applied: true, Duration: elapsed}, nil
	}

	kind := e.classify(err)
	if kind == KindDuplicate && step.Mode == ModeTolerateDuplicate {
		log.Debug().Err(err).Msg("already applied, skipping")
		return Result{Step: step, SkippedReason: SkippedAlreadyExists, Duration: elapsed}, nil
	}

	log.Error().Err(err).Stringer("kind", kind).Str("statement", step.Statement).Msg("statement failed")
	return Result{}, &StepError{Index: i, Step: step, Kind: kind, Err: err}
}
