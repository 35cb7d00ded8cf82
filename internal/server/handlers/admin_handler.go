package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/store"
)

// AdminHandler hosts destructive maintenance operations.
type AdminHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewAdminHandler constructs the HTTP handler adapter.
func NewAdminHandler(st store.Store, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{store: st, logger: logger}
}

// Reset wipes the local store back to the seed datasets. Demo facility.
func (h *AdminHandler) Reset(c *gin.Context) {
	if err := h.store.Reset(); err != nil {
		respondError(c, err)
		return
	}
	h.logger.Warn("local store reset to seed data")
	c.JSON(http.StatusOK, gin.H{"message": "store reset to seed data"})
}
