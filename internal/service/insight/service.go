// Package insight wraps the AI collaborator behind an offline-safe surface:
// callers always get a usable insight, never an error.
package insight

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store"
	"github.com/ruralmed/clinicstock/pkg/clients/anthropic"
)

// Service produces natural-language inventory summaries.
type Service struct {
	store  store.Store
	client anthropic.Client // nil when no API key is configured
	logger *zap.Logger
}

// NewService wires an insight service. client may be nil.
func NewService(st store.Store, client anthropic.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, client: client, logger: logger}
}

// Analyze snapshots the inventory and asks the AI collaborator for a
// summary. Missing configuration or any failure yields the fixed degraded
// response instead of an error.
func (s *Service) Analyze(ctx context.Context) (models.InventoryInsight, error) {
	if s.client == nil {
		return models.InventoryInsight{
			Summary:            "API configuration missing. Unable to contact the smart assistant.",
			UrgentActions:      []string{},
			RestockSuggestions: []string{},
		}, nil
	}

	items, err := s.store.Inventory()
	if err != nil {
		return models.InventoryInsight{}, fmt.Errorf("load inventory: %w", err)
	}

	snapshot := make([]models.InsightItem, 0, len(items))
	for _, item := range items {
		snapshot = append(snapshot, models.InsightItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			MinLevel: item.MinLevel,
			Category: item.Category,
			Expiry:   item.ExpiryDate.Format("2006-01-02"),
		})
	}

	insight, err := s.client.AnalyzeInventory(ctx, snapshot)
	if err != nil {
		s.logger.Warn("ai analysis failed, returning degraded insight", zap.Error(err))
		return models.InventoryInsight{
			Summary:            "Temporary connection issue with the smart assistant. Please try again.",
			UrgentActions:      []string{"Check internet connection"},
			RestockSuggestions: []string{},
		}, nil
	}
	return insight, nil
}
