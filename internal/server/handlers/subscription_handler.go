package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/service/subscription"
)

// SubscriptionHandler serves the license status and renewal surface. These
// routes stay reachable after expiry so a locked-out clinic can renew.
type SubscriptionHandler struct {
	svc    *subscription.Service
	logger *zap.Logger
}

// NewSubscriptionHandler constructs the HTTP handler adapter.
func NewSubscriptionHandler(svc *subscription.Service, logger *zap.Logger) *SubscriptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionHandler{svc: svc, logger: logger}
}

// Status returns the reconciled license record and days remaining.
func (h *SubscriptionHandler) Status(c *gin.Context) {
	sub, err := h.svc.Current()
	if err != nil {
		respondError(c, err)
		return
	}
	days, err := h.svc.DaysLeft()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub, "daysLeft": days})
}

type renewRequest struct {
	Code string `json:"code" binding:"required"`
}

// Renew validates the manual payment code and extends the license.
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sub, err := h.svc.Renew(req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("subscription renewed via manual code")
	c.JSON(http.StatusOK, sub)
}
