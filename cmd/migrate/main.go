package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"schemarunner/internal/config"
	"schemarunner/internal/database"
	"schemarunner/internal/logging"
	"schemarunner/internal/migration"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	v      *viper.Viper
	fs     afero.Fs
	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), fs: afero.NewOsFs()}
	var configFile string

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply idempotent schema migrations",
		Long: `migrate applies an ordered list of schema statements on one connection,
tolerating objects that already exist. Without a FILE argument the embedded
scripts are used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				a.v.SetConfigFile(configFile)
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg

			a.logger, err = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default .schemarunner.yaml in . or $HOME)")
	flags.String("driver", "", "database driver: sqlite3, duckdb, mysql, postgres, pgx")
	flags.String("db", "", "database file for sqlite3 and duckdb")
	flags.String("dsn", "", "data source name for server databases")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", "log format: console or json")
	flags.Duration("timeout", 0, "per statement timeout, 0 disables")
	flags.Bool("allow-dangerous", false, "allow DROP DATABASE and TRUNCATE")

	for key, name := range map[string]string{
		"database.driver":             "driver",
		"database.path":               "db",
		"database.dsn":                "dsn",
		"log.level":                   "log-level",
		"log.format":                  "log-format",
		"migration.statement_timeout": "timeout",
		"migration.allow_dangerous":   "allow-dangerous",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(newUpCmd(a), newPlanCmd(a), newStatusCmd(a))
	return root
}

// loadScripts reads FILE when given, otherwise the embedded scripts.
func (a *app) loadScripts(args []string) (string, []migration.Script, error) {
	if len(args) > 0 {
		script, err := migration.LoadScript(a.fs, args[0])
		if err != nil {
			return "", nil, err
		}
		return args[0], []migration.Script{script}, nil
	}

	scripts, err := migration.EmbeddedScripts()
	if err != nil {
		return "", nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	return migration.EmbeddedSource, scripts, nil
}

func (a *app) loadSteps(args []string) (string, []migration.Step, error) {
	source, scripts, err := a.loadScripts(args)
	if err != nil {
		return "", nil, err
	}
	return source, migration.StepsOf(scripts), nil
}

// openEngine connects to the configured store. The returned closer releases
// the pool.
func (a *app) openEngine(ctx context.Context) (*migration.Engine, io.Closer, error) {
	db, dialect, err := database.InitializeWithConfig(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	engine := migration.NewEngine(db, migration.Options{
		Dialect:          dialect,
		StatementTimeout: a.cfg.StatementTimeout,
		AllowDangerous:   a.cfg.AllowDangerous,
		Logger:           a.logger,
	})
	return engine, db, nil
}
