package handlers

import (
	"errors"
	"net/http"

	"schemarunner/internal/migration"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	engine *migration.Engine
	source string
	steps  []migration.Step
	logger zerolog.Logger
}

// NewHandler serves the given steps, labelled source in run reports.
func NewHandler(engine *migration.Engine, source string, steps []migration.Step, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		source: source,
		steps:  steps,
		logger: logger.With().Str("component", "handlers").Logger(),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "schemarunner API is running",
	})
}

func (h *Handler) GetPlan(c *gin.Context) {
	if err := h.engine.Plan(h.steps); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid migration",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source": h.source,
		"steps":  h.steps,
		"count":  len(h.steps),
	})
}

func (h *Handler) GetSchemaStatus(c *gin.Context) {
	statuses, err := h.engine.Status(c.Request.Context(), h.steps)
	if err != nil {
		h.logger.Error().Err(err).Msg("schema inspection failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to inspect schema",
			"details": err.Error(),
		})
		return
	}

	pending := 0
	for _, s := range statuses {
		if s.Known && !s.Present {
			pending++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"source":  h.source,
		"steps":   statuses,
		"pending": pending,
	})
}

func (h *Handler) RunMigrations(c *gin.Context) {
	report, err := h.engine.Up(c.Request.Context(), h.source, h.steps)
	if err != nil {
		if report == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid migration",
				"details": err.Error(),
			})
			return
		}

		body := gin.H{
			"error":   "Migration failed",
			"details": err.Error(),
			"kind":    migration.KindOf(err),
			"report":  report,
		}
		var stepErr *migration.StepError
		if errors.As(err, &stepErr) {
			body["failed_step"] = stepErr.Index + 1
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetLastRun(c *gin.Context) {
	report := h.engine.LastReport()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No migration has run yet",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
