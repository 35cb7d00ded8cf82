// Package sync reconciles the local store with the remote document store:
// push everything as merge-writes, then pull and wholesale-replace local
// collections from non-empty remote ones. Conflict policy is last writer
// wins; there is no retry or backoff.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store"
)

// State is the engine's externally visible condition. There is no error
// state; failures surface to the caller and the engine returns to Idle.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
)

// ErrSyncInProgress rejects a trigger that overlaps an in-flight pass.
var ErrSyncInProgress = errors.New("a sync is already in progress")

// Snapshot carries the three synchronized collections in one unit.
type Snapshot struct {
	Inventory []models.InventoryItem
	Users     []models.RegisteredUser
	Logs      []models.ConsumptionLog
}

// Remote is the remote document store boundary. Push must apply the whole
// snapshot as one merge-write batch: all or nothing, fields absent locally
// preserved remotely.
type Remote interface {
	Push(ctx context.Context, snap Snapshot) error
	Pull(ctx context.Context) (Snapshot, error)
}

// Engine runs sync passes. A nil remote selects local-only demo mode, which
// simulates latency and records success without transferring data.
type Engine struct {
	store  store.Store
	remote Remote
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	syncing bool

	simulatedDelay time.Duration
}

// NewEngine wires a sync engine. remote may be nil.
func NewEngine(st store.Store, remote Remote, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:          st,
		remote:         remote,
		logger:         logger,
		now:            time.Now,
		simulatedDelay: time.Second,
	}
}

// State reports whether a pass is in flight.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.syncing {
		return StateSyncing
	}
	return StateIdle
}

// LastSync returns the timestamp of the last successful pass, nil before the
// first one.
func (e *Engine) LastSync() (*time.Time, error) {
	return e.store.LastSync()
}

// Sync runs one full push-then-pull pass. Overlapping calls are rejected
// with ErrSyncInProgress rather than interleaved. On failure local data is
// left untouched and the engine returns to Idle.
func (e *Engine) Sync(ctx context.Context) error {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return ErrSyncInProgress
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	if e.remote == nil {
		return e.simulate(ctx)
	}

	snap, err := e.snapshot()
	if err != nil {
		return err
	}

	if err := e.remote.Push(ctx, snap); err != nil {
		return fmt.Errorf("push to remote: %w", err)
	}

	pulled, err := e.remote.Pull(ctx)
	if err != nil {
		return fmt.Errorf("pull from remote: %w", err)
	}
	if err := e.applyPull(pulled); err != nil {
		return err
	}

	if err := e.store.SetLastSync(e.now()); err != nil {
		return fmt.Errorf("record sync timestamp: %w", err)
	}

	e.logger.Info("sync completed",
		zap.Int("inventory", len(snap.Inventory)),
		zap.Int("users", len(snap.Users)),
		zap.Int("logs", len(snap.Logs)))
	return nil
}

func (e *Engine) snapshot() (Snapshot, error) {
	inventory, err := e.store.Inventory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load inventory: %w", err)
	}
	users, err := e.store.Users()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load users: %w", err)
	}
	logs, err := e.store.Logs()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load logs: %w", err)
	}
	return Snapshot{Inventory: inventory, Users: users, Logs: logs}, nil
}

// applyPull replaces local collections from the remote snapshot. Empty remote
// collections are skipped so a first sync against a fresh remote never wipes
// local data.
func (e *Engine) applyPull(pulled Snapshot) error {
	if len(pulled.Inventory) > 0 {
		if err := e.store.ReplaceInventory(pulled.Inventory); err != nil {
			return fmt.Errorf("replace inventory from remote: %w", err)
		}
	}
	if len(pulled.Users) > 0 {
		if err := e.store.ReplaceUsers(pulled.Users); err != nil {
			return fmt.Errorf("replace users from remote: %w", err)
		}
	}
	if len(pulled.Logs) > 0 {
		if err := e.store.ReplaceLogs(pulled.Logs); err != nil {
			return fmt.Errorf("replace logs from remote: %w", err)
		}
	}
	return nil
}

func (e *Engine) simulate(ctx context.Context) error {
	e.logger.Info("no remote store configured, simulating sync")

	select {
	case <-time.After(e.simulatedDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := e.store.SetLastSync(e.now()); err != nil {
		return fmt.Errorf("record sync timestamp: %w", err)
	}
	return nil
}
