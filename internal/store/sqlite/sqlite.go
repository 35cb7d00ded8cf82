// Package sqlite persists the local collections in an embedded SQLite file.
// Each logical collection is a single row holding the whole collection as a
// JSON payload, which keeps writes atomic per collection and mirrors the
// replace-all contract of the store interface.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store"
)

const (
	keyInventory    = "inventory"
	keyLogs         = "consumption-logs"
	keyUsers        = "registered-users"
	keySubscription = "subscription"
	keySession      = "active-session"
	keyLastSync     = "last-sync-timestamp"
	keyOtpRegistry  = "otp-registry"
)

// Store implements store.Store on top of a single SQLite file. A mutex keeps
// the read-modify-write cycles of append/update/delete single-writer.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens (and if needed creates) the database at path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	// SQLite supports a single writer; the in-memory DSN additionally needs a
	// single connection so every query sees the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name       TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create collections table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) readPayload(key string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM collections WHERE name = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read collection %s: %w", key, err)
	}
	return []byte(payload), true, nil
}

func (s *Store) writePayload(key string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO collections (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(payload), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write collection %s: %w", key, err)
	}
	return nil
}

func readSlice[T any](s *Store, key string, seed func() []T) ([]T, error) {
	payload, ok, err := s.readPayload(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		if seed != nil {
			return seed(), nil
		}
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", key, err)
	}
	return out, nil
}

func writeSlice[T any](s *Store, key string, values []T) error {
	if values == nil {
		values = []T{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", key, err)
	}
	return s.writePayload(key, payload)
}

// --- Inventory ---

func (s *Store) Inventory() ([]models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readSlice(s, keyInventory, func() []models.InventoryItem { return store.SeedInventory(s.now()) })
}

func (s *Store) ReplaceInventory(items []models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeSlice(s, keyInventory, items)
}

func (s *Store) AddItem(item models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := readSlice(s, keyInventory, func() []models.InventoryItem { return store.SeedInventory(s.now()) })
	if err != nil {
		return err
	}
	return writeSlice(s, keyInventory, append(items, item))
}

func (s *Store) UpdateItem(item models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := readSlice(s, keyInventory, func() []models.InventoryItem { return store.SeedInventory(s.now()) })
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return writeSlice(s, keyInventory, items)
		}
	}
	return nil
}

func (s *Store) DeleteItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := readSlice(s, keyInventory, func() []models.InventoryItem { return store.SeedInventory(s.now()) })
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	return writeSlice(s, keyInventory, kept)
}

// --- Consumption logs ---

func (s *Store) Logs() ([]models.ConsumptionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readSlice[models.ConsumptionLog](s, keyLogs, nil)
}

func (s *Store) ReplaceLogs(logs []models.ConsumptionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeSlice(s, keyLogs, logs)
}

func (s *Store) AddLog(log models.ConsumptionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs, err := readSlice[models.ConsumptionLog](s, keyLogs, nil)
	if err != nil {
		return err
	}
	return writeSlice(s, keyLogs, append(logs, log))
}

// --- Users ---

func (s *Store) Users() ([]models.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readSlice(s, keyUsers, store.SeedUsers)
}

func (s *Store) ReplaceUsers(users []models.RegisteredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeSlice(s, keyUsers, users)
}

func (s *Store) AddUser(user models.RegisteredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := readSlice(s, keyUsers, store.SeedUsers)
	if err != nil {
		return err
	}
	return writeSlice(s, keyUsers, append(users, user))
}

func (s *Store) UpdateUser(user models.RegisteredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := readSlice(s, keyUsers, store.SeedUsers)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			return writeSlice(s, keyUsers, users)
		}
	}
	return nil
}

// --- Subscription ---

func (s *Store) Subscription() (models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok, err := s.readPayload(keySubscription)
	if err != nil {
		return models.Subscription{}, err
	}
	if !ok {
		return store.SeedSubscription(s.now()), nil
	}

	var sub models.Subscription
	if err := json.Unmarshal(payload, &sub); err != nil {
		return models.Subscription{}, fmt.Errorf("decode subscription: %w", err)
	}
	return sub, nil
}

func (s *Store) SaveSubscription(sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	return s.writePayload(keySubscription, payload)
}

// --- Session ---

func (s *Store) Session() (*models.SessionUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok, err := s.readPayload(keySession)
	if err != nil || !ok {
		return nil, err
	}

	var sess models.SessionUser
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *Store) SaveSession(user models.SessionUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.writePayload(keySession, payload)
}

func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM collections WHERE name = ?`, keySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// --- OTP registry ---

func (s *Store) readOtpRegistry() (map[string]models.OtpRecord, error) {
	payload, ok, err := s.readPayload(keyOtpRegistry)
	if err != nil {
		return nil, err
	}
	registry := map[string]models.OtpRecord{}
	if !ok {
		return registry, nil
	}
	if err := json.Unmarshal(payload, &registry); err != nil {
		return nil, fmt.Errorf("decode otp registry: %w", err)
	}
	return registry, nil
}

func (s *Store) writeOtpRegistry(registry map[string]models.OtpRecord) error {
	payload, err := json.Marshal(registry)
	if err != nil {
		return fmt.Errorf("encode otp registry: %w", err)
	}
	return s.writePayload(keyOtpRegistry, payload)
}

func (s *Store) Otp(contact string) (*models.OtpRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registry, err := s.readOtpRegistry()
	if err != nil {
		return nil, err
	}
	rec, ok := registry[contact]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) SaveOtp(contact string, rec models.OtpRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, err := s.readOtpRegistry()
	if err != nil {
		return err
	}
	registry[contact] = rec
	return s.writeOtpRegistry(registry)
}

func (s *Store) DeleteOtp(contact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, err := s.readOtpRegistry()
	if err != nil {
		return err
	}
	delete(registry, contact)
	return s.writeOtpRegistry(registry)
}

func (s *Store) PurgeExpiredOtps(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, err := s.readOtpRegistry()
	if err != nil {
		return 0, err
	}
	purged := 0
	for contact, rec := range registry {
		if now.After(rec.ExpiresAt) {
			delete(registry, contact)
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}
	return purged, s.writeOtpRegistry(registry)
}

// --- Last sync ---

func (s *Store) LastSync() (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok, err := s.readPayload(keyLastSync)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, string(payload))
	if err != nil {
		return nil, fmt.Errorf("parse last sync timestamp: %w", err)
	}
	return &t, nil
}

func (s *Store) SetLastSync(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writePayload(keyLastSync, []byte(t.UTC().Format(time.RFC3339)))
}

// --- Reset ---

// Reset drops every collection and rewrites the seed datasets, matching the
// original demo-reset behavior.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM collections`); err != nil {
		return fmt.Errorf("reset collections: %w", err)
	}

	now := s.now()
	if err := writeSlice(s, keyInventory, store.SeedInventory(now)); err != nil {
		return err
	}
	if err := writeSlice(s, keyUsers, store.SeedUsers()); err != nil {
		return err
	}
	payload, err := json.Marshal(store.SeedSubscription(now))
	if err != nil {
		return fmt.Errorf("encode subscription seed: %w", err)
	}
	return s.writePayload(keySubscription, payload)
}
