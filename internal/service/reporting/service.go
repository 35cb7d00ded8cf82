// Package reporting aggregates revenue and consumption figures for the
// dashboard views and exports a daily sales summary to a spreadsheet when
// one is configured.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/repository/sheets"
	"github.com/ruralmed/clinicstock/internal/store"
)

const (
	dateLayout       = "2006-01-02"
	salesExportRange = "Sales!A:D"
)

// ConsumptionTotal ranks one item's all-time usage and revenue.
type ConsumptionTotal struct {
	ItemName  string  `json:"itemName"`
	TotalUsed int     `json:"totalUsed"`
	Revenue   float64 `json:"revenue"`
}

// Service exposes lightweight analytics over the consumption history.
type Service struct {
	store  store.Store
	sheets sheets.Repository // nil when export is not configured
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a reporting service. sheetsRepo may be nil.
func NewService(st store.Store, sheetsRepo sheets.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, sheets: sheetsRepo, logger: logger, now: time.Now}
}

// TotalRevenue sums saleAmount across the whole history.
func (s *Service) TotalRevenue() (float64, error) {
	logs, err := s.store.Logs()
	if err != nil {
		return 0, fmt.Errorf("load logs: %w", err)
	}
	var total float64
	for _, log := range logs {
		total += log.SaleAmount
	}
	return total, nil
}

// RevenueBetween sums saleAmount for logs dated within [start, end].
func (s *Service) RevenueBetween(start, end time.Time) (float64, error) {
	logs, err := s.store.Logs()
	if err != nil {
		return 0, fmt.Errorf("load logs: %w", err)
	}
	var total float64
	for _, log := range logs {
		if log.Date.Before(start) || log.Date.After(end) {
			continue
		}
		total += log.SaleAmount
	}
	return total, nil
}

// TopConsumption ranks items by all-time units used, highest first,
// truncated to limit entries.
func (s *Service) TopConsumption(limit int) ([]ConsumptionTotal, error) {
	logs, err := s.store.Logs()
	if err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}

	byName := map[string]*ConsumptionTotal{}
	for _, log := range logs {
		entry, ok := byName[log.ItemName]
		if !ok {
			entry = &ConsumptionTotal{ItemName: log.ItemName}
			byName[log.ItemName] = entry
		}
		entry.TotalUsed += log.QuantityUsed
		entry.Revenue += log.SaleAmount
	}

	ranked := make([]ConsumptionTotal, 0, len(byName))
	for _, entry := range byName {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalUsed != ranked[j].TotalUsed {
			return ranked[i].TotalUsed > ranked[j].TotalUsed
		}
		return ranked[i].ItemName < ranked[j].ItemName
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// ExportDailySales appends one summary row for the current day to the
// configured spreadsheet. A no-op when no sheet is configured.
func (s *Service) ExportDailySales(ctx context.Context) error {
	if s.sheets == nil {
		s.logger.Debug("sheets export not configured, skipping daily sales export")
		return nil
	}

	logs, err := s.store.Logs()
	if err != nil {
		return fmt.Errorf("load logs: %w", err)
	}

	day := s.now().UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	var units int
	var events int
	var revenue float64
	for _, log := range logs {
		if log.Date.Before(dayStart) || !log.Date.Before(dayStart.AddDate(0, 0, 1)) {
			continue
		}
		units += log.QuantityUsed
		events++
		revenue += log.SaleAmount
	}

	row := []interface{}{day.Format(dateLayout), events, units, revenue}
	if err := s.sheets.AppendRow(ctx, salesExportRange, row); err != nil {
		return fmt.Errorf("export daily sales: %w", err)
	}

	s.logger.Info("daily sales exported",
		zap.String("date", day.Format(dateLayout)),
		zap.Int("events", events),
		zap.Float64("revenue", revenue))
	return nil
}
