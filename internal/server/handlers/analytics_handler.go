package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/service/forecast"
	"github.com/ruralmed/clinicstock/internal/service/reporting"
)

// AnalyticsHandler serves the forecasting and revenue views.
type AnalyticsHandler struct {
	forecast  *forecast.Service
	reporting *reporting.Service
	logger    *zap.Logger
}

// NewAnalyticsHandler constructs the HTTP handler adapter.
func NewAnalyticsHandler(fc *forecast.Service, rep *reporting.Service, logger *zap.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{forecast: fc, reporting: rep, logger: logger}
}

// Forecast returns the stock-out projection for every item.
func (h *AnalyticsHandler) Forecast(c *gin.Context) {
	forecasts, err := h.forecast.ForecastAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, forecasts)
}

// AtRisk returns items projected to run out within 30 days, soonest first.
func (h *AnalyticsHandler) AtRisk(c *gin.Context) {
	risky, err := h.forecast.AtRisk()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, risky)
}

// Revenue returns the all-time revenue total, or a windowed total when
// from/to query parameters (RFC 3339) are supplied.
func (h *AnalyticsHandler) Revenue(c *gin.Context) {
	fromParam := c.Query("from")
	toParam := c.Query("to")

	if fromParam == "" && toParam == "" {
		total, err := h.reporting.TotalRevenue()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": total})
		return
	}

	from, err := time.Parse(time.RFC3339, fromParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, toParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
		return
	}

	total, err := h.reporting.RevenueBetween(from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "from": from, "to": to})
}

// TopConsumption returns the ten most consumed items.
func (h *AnalyticsHandler) TopConsumption(c *gin.Context) {
	ranked, err := h.reporting.TopConsumption(10)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranked)
}
