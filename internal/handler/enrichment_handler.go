package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"committrack/internal/service/enrich"
)

// EnrichmentRunner is the slice of the enrichment job the handler needs.
type EnrichmentRunner interface {
	Run(ctx context.Context) (enrich.Summary, error)
}

type EnrichmentHandler struct {
	runner EnrichmentRunner
	logger *zap.Logger
}

func NewEnrichmentHandler(runner EnrichmentRunner, logger *zap.Logger) *EnrichmentHandler {
	return &EnrichmentHandler{runner: runner, logger: logger}
}

// RunNow handles POST /enrichment/run: the "generate now" action. The job runs
// synchronously and the summary exposes partial failure as processed < total.
func (h *EnrichmentHandler) RunNow(c *gin.Context) {
	summary, err := h.runner.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, enrich.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "an enrichment run is already in progress"})
			return
		}
		h.logger.Error("Manual enrichment run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enrichment run failed"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
