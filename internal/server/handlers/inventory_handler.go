package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/service/inventory"
)

// InventoryHandler adapts the inventory service to HTTP.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

// List returns the full inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.svc.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create adds a new item.
func (h *InventoryHandler) Create(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.Create(item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update replaces an item in full. The path id wins over any id in the body.
func (h *InventoryHandler) Update(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	item.ID = c.Param("id")

	updated, err := h.svc.Update(item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes an item.
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type consumeRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// Consume records a consumption or sale event against an item.
func (h *InventoryHandler) Consume(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	log, err := h.svc.RecordConsumption(c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

// Logs returns the full consumption history.
func (h *InventoryHandler) Logs(c *gin.Context) {
	logs, err := h.svc.Logs()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// LowStock returns items at or below their reorder threshold.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.svc.LowStock()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CriticalShortages returns low-stock items in the Critical category.
func (h *InventoryHandler) CriticalShortages(c *gin.Context) {
	items, err := h.svc.CriticalShortages()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Expired returns items whose batch expiry has passed.
func (h *InventoryHandler) Expired(c *gin.Context) {
	items, err := h.svc.Expired()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
