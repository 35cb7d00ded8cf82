// Package forecast projects stock-out dates from consumption history using a
// plain linear-rate estimator. No seasonality, no outlier rejection.
package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store"
)

// Service computes per-item consumption rates and days-until-stockout.
type Service struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a forecasting service instance.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger, now: time.Now}
}

// ForecastAll returns a forecast for every inventory item, in inventory order.
func (s *Service) ForecastAll() ([]models.ItemForecast, error) {
	items, err := s.store.Inventory()
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	logs, err := s.store.Logs()
	if err != nil {
		return nil, fmt.Errorf("load consumption logs: %w", err)
	}

	now := s.now()
	forecasts := make([]models.ItemForecast, 0, len(items))
	for _, item := range items {
		forecasts = append(forecasts, forecastItem(item, logs, now))
	}
	return forecasts, nil
}

// AtRisk returns the items projected to run out within 30 days, soonest
// first. Items with no usage history never appear here.
func (s *Service) AtRisk() ([]models.ItemForecast, error) {
	all, err := s.ForecastAll()
	if err != nil {
		return nil, err
	}

	risky := make([]models.ItemForecast, 0, len(all))
	for _, f := range all {
		if f.AtRisk() {
			risky = append(risky, f)
		}
	}
	sort.SliceStable(risky, func(i, j int) bool { return risky[i].DaysLeft < risky[j].DaysLeft })
	return risky, nil
}

func forecastItem(item models.InventoryItem, logs []models.ConsumptionLog, now time.Time) models.ItemForecast {
	var totalUsed int
	var firstDate time.Time
	matched := false

	for _, log := range logs {
		if log.ItemID != item.ID {
			continue
		}
		totalUsed += log.QuantityUsed
		if !matched || log.Date.Before(firstDate) {
			firstDate = log.Date
		}
		matched = true
	}

	if !matched {
		return models.ItemForecast{Item: item, DailyRate: 0, DaysLeft: models.DaysLeftSentinel}
	}

	// At least one effective day avoids dividing by zero when all logs landed
	// today.
	elapsed := now.Sub(firstDate).Hours() / 24
	effectiveDays := math.Max(1, math.Ceil(elapsed))

	dailyRate := float64(totalUsed) / effectiveDays
	if dailyRate <= 0 {
		return models.ItemForecast{Item: item, DailyRate: 0, DaysLeft: models.DaysLeftSentinel}
	}

	daysLeft := int(math.Floor(float64(item.Quantity) / dailyRate))
	return models.ItemForecast{Item: item, DailyRate: dailyRate, DaysLeft: daysLeft}
}
