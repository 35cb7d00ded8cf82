package store

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ruralmed/clinicstock/internal/domain/models"
)

// Demo PINs for the seeded accounts. Shown on the demo login screen, not a
// secret.
const (
	SeedAdminPIN = "8888"
	SeedStaffPIN = "1111"
)

// SeedInventory returns the first-run demo stock, rebuilt fresh on every call
// so callers cannot mutate a shared slice.
func SeedInventory(now time.Time) []models.InventoryItem {
	return []models.InventoryItem{
		{
			ID:          "1",
			Name:        "Paracetamol 500mg",
			Quantity:    450,
			MinLevel:    100,
			BatchNumber: "BATCH-001",
			ExpiryDate:  now.AddDate(1, 0, 0),
			Category:    models.CategoryEssential,
			LastUpdated: now,
			IsForSale:   true,
			Price:       5.00,
		},
		{
			ID:          "2",
			Name:        "Amoxicillin 250mg",
			Quantity:    20,
			MinLevel:    50,
			BatchNumber: "BATCH-002",
			ExpiryDate:  now.AddDate(0, 6, 0),
			Category:    models.CategoryCritical,
			LastUpdated: now,
			IsForSale:   true,
			Price:       15.50,
		},
		{
			ID:          "3",
			Name:        "Oral Rehydration Salts",
			Quantity:    15,
			MinLevel:    30,
			BatchNumber: "BATCH-003",
			ExpiryDate:  now.AddDate(0, 0, -5), // already expired on first run
			Category:    models.CategoryEssential,
			LastUpdated: now,
		},
		{
			ID:          "4",
			Name:        "Surgical Gloves (Pair)",
			Quantity:    200,
			MinLevel:    50,
			BatchNumber: "BATCH-004",
			ExpiryDate:  now.AddDate(0, 0, 700),
			Category:    models.CategoryNonEssential,
			LastUpdated: now,
			IsForSale:   true,
			Price:       2.00,
		},
	}
}

// SeedUsers returns the demo admin and staff accounts with hashed PINs.
func SeedUsers() []models.RegisteredUser {
	return []models.RegisteredUser{
		{
			ID:       "admin-001",
			Username: "admin",
			PINHash:  mustHashPIN(SeedAdminPIN),
			Role:     models.RoleAdmin,
			Phone:    "0550000000",
			Email:    "admin@ruralmed.com",
		},
		{
			ID:       "staff-001",
			Username: "staff",
			PINHash:  mustHashPIN(SeedStaffPIN),
			Role:     models.RoleStaff,
			Phone:    "0551111111",
			Email:    "staff@ruralmed.com",
		},
	}
}

// SeedSubscription starts a fresh install with 15 days of license left.
func SeedSubscription(now time.Time) models.Subscription {
	return models.Subscription{
		IsActive:          true,
		ExpiryDate:        now.AddDate(0, 0, 15),
		LastPaymentMethod: models.PaymentMoMo,
	}
}

func mustHashPIN(pin string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}
