package migration

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures an Engine.
type Options struct {
	Dialect          Dialect
	StatementTimeout time.Duration
	AllowDangerous   bool
	Logger           zerolog.Logger
}

// Engine is the main migration engine
type Engine struct {
	db             *sql.DB
	executor       *Executor
	inspector      *Inspector
	logger         zerolog.Logger
	allowDangerous bool

	// mu serializes runs so schema changes on one store never race.
	mu   sync.Mutex
	last *Report
}

// NewEngine creates a new migration engine
func NewEngine(db *sql.DB, opts Options) *Engine {
	logger := opts.Logger.With().Str("component", "migration").Logger()
	if opts.Dialect == "" {
		opts.Dialect = DialectSQLite
	}

	return &Engine{
		db:             db,
		executor:       NewExecutor(logger, WithStatementTimeout(opts.StatementTimeout)),
		inspector:      NewInspector(opts.Dialect),
		logger:         logger,
		allowDangerous: opts.AllowDangerous,
	}
}

// Plan validates steps without touching the store.
func (e *Engine) Plan(steps []Step) error {
	return Validate(steps, e.allowDangerous)
}

// Up applies steps on a dedicated connection. Validation failures return a
// nil report. Otherwise the report is returned even when a step fails, with
// the results gathered before the failure.
func (e *Engine) Up(ctx context.Context, source string, steps []Step) (*Report, error) {
	if err := Validate(steps, e.allowDangerous); err != nil {
		return nil, fmt.Errorf("invalid migration %s: %w", source, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	report := &Report{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
	log := e.logger.With().Str("run_id", report.RunID).Str("source", source).Logger()
	log.Info().Int("steps", len(steps)).Msg("starting migration")

	results, err := e.runOnConn(ctx, steps, log)
	report.Results = results
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
	}
	e.last = report

	if err != nil {
		log.Error().Err(err).Int("completed", len(results)).Msg("migration failed")
		return report, err
	}

	log.Info().
		Int("applied", report.AppliedCount()).
		Int("skipped", report.SkippedCount()).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("migration completed")
	return report, nil
}

func (e *Engine) runOnConn(ctx context.Context, steps []Step, log zerolog.Logger) ([]Result, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, &StepError{Index: 0, Step: steps[0], Kind: KindConnection, Err: err}
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to release connection")
		}
	}()

	executor := *e.executor
	executor.logger = log
	return executor.Run(ctx, conn, steps)
}

// Status reports which of the steps' objects already exist.
func (e *Engine) Status(ctx context.Context, steps []Step) ([]StepStatus, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return e.inspector.Inspect(ctx, conn, steps)
}

// LastReport returns the report of the most recent run, or nil.
func (e *Engine) LastReport() *Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}
