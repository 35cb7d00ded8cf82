package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncsvc "github.com/ruralmed/clinicstock/internal/service/sync"
)

// SyncHandler exposes the sync engine's manual trigger and status.
type SyncHandler struct {
	engine *syncsvc.Engine
	logger *zap.Logger
}

// NewSyncHandler constructs the HTTP handler adapter.
func NewSyncHandler(engine *syncsvc.Engine, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{engine: engine, logger: logger}
}

// Trigger runs one sync pass. Overlapping triggers get a 409.
func (h *SyncHandler) Trigger(c *gin.Context) {
	if err := h.engine.Sync(c.Request.Context()); err != nil {
		h.logger.Warn("manual sync failed", zap.Error(err))
		respondError(c, err)
		return
	}

	last, err := h.engine.LastSync()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.engine.State(), "lastSync": last})
}

// Status reports the engine state and last successful sync time.
func (h *SyncHandler) Status(c *gin.Context) {
	last, err := h.engine.LastSync()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.engine.State(), "lastSync": last})
}
