package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store/sqlite"
)

// fakeRemote applies merge-write semantics over an in-memory document map,
// mirroring what the MongoDB adapter does with $set upserts.
type fakeRemote struct {
	mu        sync.Mutex
	inventory map[string]models.InventoryItem
	users     map[string]models.RegisteredUser
	logs      map[string]models.ConsumptionLog

	pushErr error
	pullErr error

	pushes  int
	started chan struct{}
	release chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		inventory: map[string]models.InventoryItem{},
		users:     map[string]models.RegisteredUser{},
		logs:      map[string]models.ConsumptionLog{},
	}
}

func (f *fakeRemote) Push(_ context.Context, snap Snapshot) error {
	if f.started != nil {
		close(f.started)
		f.started = nil
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes++
	for _, item := range snap.Inventory {
		f.inventory[item.ID] = item
	}
	for _, user := range snap.Users {
		f.users[user.ID] = user
	}
	for _, log := range snap.Logs {
		f.logs[log.ID] = log
	}
	return nil
}

func (f *fakeRemote) Pull(_ context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return Snapshot{}, f.pullErr
	}
	var snap Snapshot
	for _, item := range f.inventory {
		snap.Inventory = append(snap.Inventory, item)
	}
	for _, user := range f.users {
		snap.Users = append(snap.Users, user)
	}
	for _, log := range f.logs {
		snap.Logs = append(snap.Logs, log)
	}
	return snap, nil
}

func newEngine(t *testing.T, remote Remote) *Engine {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	e := NewEngine(st, remote, nil)
	e.simulatedDelay = time.Millisecond
	return e
}

func TestPushThenPullRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	e := newEngine(t, remote)

	require.NoError(t, e.store.ReplaceInventory([]models.InventoryItem{
		{ID: "i1", Name: "Paracetamol", Quantity: 10},
	}))
	require.NoError(t, e.store.ReplaceUsers([]models.RegisteredUser{
		{ID: "u1", Username: "admin"},
	}))
	require.NoError(t, e.store.ReplaceLogs([]models.ConsumptionLog{
		{ID: "l1", ItemID: "i1", QuantityUsed: 2},
	}))

	require.NoError(t, e.Sync(context.Background()))

	assert.Len(t, remote.inventory, 1)
	assert.Len(t, remote.users, 1)
	assert.Len(t, remote.logs, 1)

	ts, err := e.LastSync()
	require.NoError(t, err)
	assert.NotNil(t, ts)
	assert.Equal(t, StateIdle, e.State())
}

func TestPullReplacesLocalWithRemoteState(t *testing.T) {
	remote := newFakeRemote()
	remote.inventory["r1"] = models.InventoryItem{ID: "r1", Name: "Remote item", Quantity: 7}
	e := newEngine(t, remote)

	require.NoError(t, e.store.ReplaceInventory([]models.InventoryItem{
		{ID: "i1", Name: "Local item", Quantity: 1},
	}))
	require.NoError(t, e.store.ReplaceUsers(nil))
	require.NoError(t, e.store.ReplaceLogs(nil))

	require.NoError(t, e.Sync(context.Background()))

	items, err := e.store.Inventory()
	require.NoError(t, err)
	// Remote had the pushed local item merged in plus its own; local now
	// mirrors the remote collection wholesale.
	assert.Len(t, items, 2)
}

func TestEmptyRemoteNeverWipesLocal(t *testing.T) {
	remote := newFakeRemote()
	e := newEngine(t, remote)

	require.NoError(t, e.store.ReplaceUsers(nil))
	require.NoError(t, e.store.ReplaceLogs(nil))
	require.NoError(t, e.store.ReplaceInventory([]models.InventoryItem{
		{ID: "i1", Name: "Keep me", Quantity: 5},
	}))

	// Remote starts empty for users and logs; push fills inventory only.
	require.NoError(t, e.Sync(context.Background()))

	items, err := e.store.Inventory()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Keep me", items[0].Name)
}

func TestSyncIdempotence(t *testing.T) {
	remote := newFakeRemote()
	e := newEngine(t, remote)

	require.NoError(t, e.store.ReplaceInventory([]models.InventoryItem{
		{ID: "i1", Name: "Stable", Quantity: 9},
	}))
	require.NoError(t, e.store.ReplaceUsers(nil))
	require.NoError(t, e.store.ReplaceLogs(nil))

	require.NoError(t, e.Sync(context.Background()))
	first := remote.inventory["i1"]

	require.NoError(t, e.Sync(context.Background()))
	second := remote.inventory["i1"]

	assert.Equal(t, first, second, "pushing an unchanged snapshot must not alter remote state")
	assert.Equal(t, 2, remote.pushes)
}

func TestFailedPushLeavesLocalUntouchedAndNoTimestamp(t *testing.T) {
	remote := newFakeRemote()
	remote.pushErr = errors.New("network down")
	e := newEngine(t, remote)

	local := []models.InventoryItem{{ID: "i1", Name: "Local", Quantity: 3}}
	require.NoError(t, e.store.ReplaceInventory(local))

	err := e.Sync(context.Background())
	require.Error(t, err)

	items, _ := e.store.Inventory()
	assert.Equal(t, local, items)

	ts, err := e.LastSync()
	require.NoError(t, err)
	assert.Nil(t, ts)
	assert.Equal(t, StateIdle, e.State(), "engine returns to idle after failure")
}

func TestOverlappingSyncRejected(t *testing.T) {
	remote := newFakeRemote()
	remote.started = make(chan struct{})
	remote.release = make(chan struct{})
	e := newEngine(t, remote)

	started := remote.started
	done := make(chan error, 1)
	go func() { done <- e.Sync(context.Background()) }()

	<-started
	assert.Equal(t, StateSyncing, e.State())
	assert.ErrorIs(t, e.Sync(context.Background()), ErrSyncInProgress)

	close(remote.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, e.State())
}

func TestSimulatedModeRecordsSuccessWithoutRemote(t *testing.T) {
	e := newEngine(t, nil)

	require.NoError(t, e.Sync(context.Background()))

	ts, err := e.LastSync()
	require.NoError(t, err)
	assert.NotNil(t, ts)
}
