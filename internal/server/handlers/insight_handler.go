package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/service/insight"
)

// InsightHandler serves AI inventory summaries.
type InsightHandler struct {
	svc    *insight.Service
	logger *zap.Logger
}

// NewInsightHandler constructs the HTTP handler adapter.
func NewInsightHandler(svc *insight.Service, logger *zap.Logger) *InsightHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightHandler{svc: svc, logger: logger}
}

// Analyze returns the AI stock-health summary, degraded when the
// collaborator is unreachable.
func (h *InsightHandler) Analyze(c *gin.Context) {
	result, err := h.svc.Analyze(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
