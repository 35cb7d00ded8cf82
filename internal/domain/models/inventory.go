package models

import "time"

// ItemCategory classifies how critical an inventory item is for clinic care.
type ItemCategory string

const (
	CategoryCritical     ItemCategory = "Critical"
	CategoryEssential    ItemCategory = "Essential"
	CategoryNonEssential ItemCategory = "Non-Essential"
)

// Valid reports whether the category is one of the known values.
func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryCritical, CategoryEssential, CategoryNonEssential:
		return true
	}
	return false
}

// InventoryItem is a single stocked product or supply.
type InventoryItem struct {
	ID          string       `json:"id" bson:"_id"`
	Name        string       `json:"name" bson:"name"`
	Quantity    int          `json:"quantity" bson:"quantity"`
	MinLevel    int          `json:"minLevel" bson:"min_level"`
	BatchNumber string       `json:"batchNumber" bson:"batch_number"`
	ExpiryDate  time.Time    `json:"expiryDate" bson:"expiry_date"`
	Category    ItemCategory `json:"category" bson:"category"`
	LastUpdated time.Time    `json:"lastUpdated" bson:"last_updated"`
	IsForSale   bool         `json:"isForSale" bson:"is_for_sale"`
	Price       float64      `json:"price" bson:"price"`
}

// IsLowStock reports whether the item sits at or below its reorder threshold.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinLevel
}

// IsExpired reports whether the item's batch expiry has passed.
func (i InventoryItem) IsExpired(now time.Time) bool {
	return i.ExpiryDate.Before(now)
}

// ConsumptionLog records one dispensing or sale event. Logs are immutable
// once written; the item name is denormalized so the log survives item
// deletion.
type ConsumptionLog struct {
	ID           string    `json:"id" bson:"_id"`
	ItemID       string    `json:"itemId" bson:"item_id"`
	ItemName     string    `json:"itemName" bson:"item_name"`
	QuantityUsed int       `json:"quantityUsed" bson:"quantity_used"`
	Date         time.Time `json:"date" bson:"date"`
	SaleAmount   float64   `json:"saleAmount,omitempty" bson:"sale_amount,omitempty"`
}
