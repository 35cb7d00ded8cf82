package store

import (
	"time"

	"github.com/ruralmed/clinicstock/internal/domain/models"
)

// Store is the device-local persistence layer. Each collection is read and
// written as a whole; operations are atomic at single-collection granularity
// only, with no cross-collection transactions. Callers receive the fixed seed
// dataset for collections that have never been written.
type Store interface {
	Inventory() ([]models.InventoryItem, error)
	ReplaceInventory(items []models.InventoryItem) error
	AddItem(item models.InventoryItem) error
	// UpdateItem is a no-op when no item carries the given id.
	UpdateItem(item models.InventoryItem) error
	DeleteItem(id string) error

	Logs() ([]models.ConsumptionLog, error)
	ReplaceLogs(logs []models.ConsumptionLog) error
	AddLog(log models.ConsumptionLog) error

	Users() ([]models.RegisteredUser, error)
	ReplaceUsers(users []models.RegisteredUser) error
	AddUser(user models.RegisteredUser) error
	UpdateUser(user models.RegisteredUser) error

	Subscription() (models.Subscription, error)
	SaveSubscription(sub models.Subscription) error

	// Session returns nil when nobody is logged in on this device.
	Session() (*models.SessionUser, error)
	SaveSession(user models.SessionUser) error
	ClearSession() error

	// Otp returns nil when no code is pending for the contact.
	Otp(contact string) (*models.OtpRecord, error)
	SaveOtp(contact string, rec models.OtpRecord) error
	DeleteOtp(contact string) error
	PurgeExpiredOtps(now time.Time) (int, error)

	// LastSync returns nil before the first successful sync.
	LastSync() (*time.Time, error)
	SetLastSync(t time.Time) error

	// Reset drops everything and rewrites the seed datasets.
	Reset() error
	Close() error
}
