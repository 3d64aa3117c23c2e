package main

import (
	"context"
	"fmt"
	"os"

	"schemarunner/internal/config"
	"schemarunner/internal/database"
	"schemarunner/internal/handlers"
	"schemarunner/internal/logging"
	"schemarunner/internal/migration"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if os.Getenv("GIN_MODE") == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, dialect, err := database.InitializeWithConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to initialize database")
	}
	defer db.Close()

	steps, err := migration.EmbeddedSteps()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load embedded migrations")
	}

	engine := migration.NewEngine(db, migration.Options{
		Dialect:          dialect,
		StatementTimeout: cfg.StatementTimeout,
		AllowDangerous:   cfg.AllowDangerous,
		Logger:           logger,
	})
	handler := handlers.NewHandler(engine, migration.EmbeddedSource, steps, logger)
	r := handlers.SetupRouter(handler, cfg, logger)

	addr := cfg.ServerHost + ":" + cfg.ServerPort
	logger.Info().
		Str("addr", addr).
		Str("driver", cfg.DatabaseDriver).
		Str("database", cfg.DatabasePath).
		Str("frontend_url", cfg.FrontendURL).
		Msg("server starting")

	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
