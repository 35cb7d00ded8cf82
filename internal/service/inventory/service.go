// Package inventory implements stock CRUD and consumption/sale recording.
package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store"
)

var (
	// ErrInvalidItem indicates the submitted item failed boundary validation.
	ErrInvalidItem = errors.New("invalid inventory item")
	// ErrItemNotFound indicates no item carries the requested id.
	ErrItemNotFound = errors.New("inventory item not found")
	// ErrInvalidQuantity indicates a consumption quantity outside (0, stock].
	ErrInvalidQuantity = errors.New("quantity must be positive and at most the current stock")
)

// Service exposes inventory operations over the local store.
type Service struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires an inventory service instance.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger, now: time.Now}
}

// List returns the full inventory.
func (s *Service) List() ([]models.InventoryItem, error) {
	return s.store.Inventory()
}

// Get returns a single item by id.
func (s *Service) Get(id string) (models.InventoryItem, error) {
	items, err := s.store.Inventory()
	if err != nil {
		return models.InventoryItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.InventoryItem{}, ErrItemNotFound
}

// Create validates and appends a new item, assigning an id when absent.
func (s *Service) Create(item models.InventoryItem) (models.InventoryItem, error) {
	if err := validateItem(item); err != nil {
		return models.InventoryItem{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.LastUpdated = s.now()

	if err := s.store.AddItem(item); err != nil {
		return models.InventoryItem{}, fmt.Errorf("persist item: %w", err)
	}
	s.logger.Info("item created", zap.String("id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// Update replaces an existing item in full.
func (s *Service) Update(item models.InventoryItem) (models.InventoryItem, error) {
	if err := validateItem(item); err != nil {
		return models.InventoryItem{}, err
	}
	if _, err := s.Get(item.ID); err != nil {
		return models.InventoryItem{}, err
	}
	item.LastUpdated = s.now()

	if err := s.store.UpdateItem(item); err != nil {
		return models.InventoryItem{}, fmt.Errorf("persist item update: %w", err)
	}
	return item, nil
}

// Delete removes an item. Hard delete: consumption logs keep the denormalized
// name but no referential integrity is maintained.
func (s *Service) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.store.DeleteItem(id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.logger.Info("item deleted", zap.String("id", id))
	return nil
}

// RecordConsumption decrements stock by qty and appends exactly one immutable
// log. When the item is for sale the log carries saleAmount = qty x price.
// Nothing is mutated on validation failure.
func (s *Service) RecordConsumption(itemID string, qty int) (models.ConsumptionLog, error) {
	item, err := s.Get(itemID)
	if err != nil {
		return models.ConsumptionLog{}, err
	}
	if qty <= 0 || qty > item.Quantity {
		return models.ConsumptionLog{}, ErrInvalidQuantity
	}

	now := s.now()
	item.Quantity -= qty
	item.LastUpdated = now
	if err := s.store.UpdateItem(item); err != nil {
		return models.ConsumptionLog{}, fmt.Errorf("persist stock decrement: %w", err)
	}

	log := models.ConsumptionLog{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		ItemName:     item.Name,
		QuantityUsed: qty,
		Date:         now,
	}
	if item.IsForSale {
		log.SaleAmount = float64(qty) * item.Price
	}
	if err := s.store.AddLog(log); err != nil {
		return models.ConsumptionLog{}, fmt.Errorf("append consumption log: %w", err)
	}

	s.logger.Info("consumption recorded",
		zap.String("item_id", item.ID),
		zap.Int("quantity", qty),
		zap.Float64("sale_amount", log.SaleAmount))
	return log, nil
}

// Logs returns the full consumption history, newest last.
func (s *Service) Logs() ([]models.ConsumptionLog, error) {
	return s.store.Logs()
}

// LowStock returns items at or below their reorder threshold.
func (s *Service) LowStock() ([]models.InventoryItem, error) {
	items, err := s.store.Inventory()
	if err != nil {
		return nil, err
	}
	low := make([]models.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

// CriticalShortages returns low-stock items in the Critical category, the
// dashboard's most urgent aggregate.
func (s *Service) CriticalShortages() ([]models.InventoryItem, error) {
	low, err := s.LowStock()
	if err != nil {
		return nil, err
	}
	critical := make([]models.InventoryItem, 0, len(low))
	for _, item := range low {
		if item.Category == models.CategoryCritical {
			critical = append(critical, item)
		}
	}
	return critical, nil
}

// Expired returns items whose batch expiry has passed.
func (s *Service) Expired() ([]models.InventoryItem, error) {
	items, err := s.store.Inventory()
	if err != nil {
		return nil, err
	}
	now := s.now()
	expired := make([]models.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.IsExpired(now) {
			expired = append(expired, item)
		}
	}
	return expired, nil
}

func validateItem(item models.InventoryItem) error {
	switch {
	case strings.TrimSpace(item.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case item.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	case item.MinLevel < 0:
		return fmt.Errorf("%w: minLevel must not be negative", ErrInvalidItem)
	case !item.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidItem, item.Category)
	case item.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	return nil
}
