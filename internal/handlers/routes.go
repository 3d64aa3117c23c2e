package handlers

import (
	"time"

	"schemarunner/internal/config"
	"schemarunner/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRouter wires the handler, CORS and API key authentication into a gin
// engine.
func SetupRouter(h *Handler, cfg *config.Config, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.New(corsConfig(cfg)))

	authMiddleware := middleware.NewAuthMiddleware(cfg.APIKey, "/api/health")
	if authMiddleware.IsAuthEnabled() {
		logger.Info().Msg("API key authentication: ENABLED")
	} else {
		logger.Warn().Msg("API key authentication: DISABLED")
	}

	api := r.Group("/api")
	api.Use(authMiddleware.Authenticate())
	{
		api.GET("/health", h.Health)
		api.GET("/schema/status", h.GetSchemaStatus)
		api.GET("/migrations/plan", h.GetPlan)
		api.POST("/migrations/run", h.RunMigrations)
		api.GET("/migrations/last", h.GetLastRun)
	}

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	origins := make([]string, 0, len(cfg.AllowedOrigins)+1)
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	origins = append(origins, cfg.AllowedOrigins...)
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
