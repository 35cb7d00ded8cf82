package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store/sqlite"
)

func newService(t *testing.T) *Service {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, nil)
}

func seedItem(t *testing.T, svc *Service, item models.InventoryItem) models.InventoryItem {
	t.Helper()
	require.NoError(t, svc.store.ReplaceInventory(nil))
	created, err := svc.Create(item)
	require.NoError(t, err)
	return created
}

func TestConsumptionDecrementsAndLogsSale(t *testing.T) {
	svc := newService(t)
	item := seedItem(t, svc, models.InventoryItem{
		Name: "Paracetamol 500mg", Quantity: 50, MinLevel: 10,
		Category: models.CategoryEssential, IsForSale: true, Price: 5.0,
	})

	log, err := svc.RecordConsumption(item.ID, 8)
	require.NoError(t, err)

	got, err := svc.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Quantity)

	logs, err := svc.Logs()
	require.NoError(t, err)
	require.Len(t, logs, 1, "exactly one log per consumption event")
	assert.Equal(t, 8, logs[0].QuantityUsed)
	assert.Equal(t, item.Name, logs[0].ItemName)
	assert.InDelta(t, 40.0, log.SaleAmount, 1e-9)
}

func TestConsumptionOfNonSaleItemHasNoSaleAmount(t *testing.T) {
	svc := newService(t)
	item := seedItem(t, svc, models.InventoryItem{
		Name: "ORS Sachet", Quantity: 30, Category: models.CategoryEssential,
	})

	log, err := svc.RecordConsumption(item.ID, 5)
	require.NoError(t, err)
	assert.Zero(t, log.SaleAmount)
}

func TestConsumptionValidation(t *testing.T) {
	svc := newService(t)
	item := seedItem(t, svc, models.InventoryItem{
		Name: "Gloves", Quantity: 3, Category: models.CategoryNonEssential,
	})

	for _, qty := range []int{0, -1, 4} {
		_, err := svc.RecordConsumption(item.ID, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "qty=%d", qty)
	}

	// Nothing mutated, nothing logged.
	got, err := svc.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	logs, err := svc.Logs()
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = svc.RecordConsumption("missing", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.store.ReplaceInventory(nil))

	cases := []models.InventoryItem{
		{Name: "", Category: models.CategoryEssential},
		{Name: "X", Quantity: -1, Category: models.CategoryEssential},
		{Name: "X", MinLevel: -1, Category: models.CategoryEssential},
		{Name: "X", Category: "Mystery"},
		{Name: "X", Category: models.CategoryEssential, Price: -1},
	}
	for i, c := range cases {
		_, err := svc.Create(c)
		assert.ErrorIs(t, err, ErrInvalidItem, "case %d", i)
	}

	created, err := svc.Create(models.InventoryItem{Name: "Bandage", Category: models.CategoryEssential})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "missing ids are assigned")
	assert.False(t, created.LastUpdated.IsZero())
}

func TestUpdateAndDeleteUnknownItem(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.store.ReplaceInventory(nil))

	_, err := svc.Update(models.InventoryItem{ID: "nope", Name: "X", Category: models.CategoryEssential})
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.ErrorIs(t, svc.Delete("nope"), ErrItemNotFound)
}

func TestCriticalShortageAggregate(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.store.ReplaceInventory([]models.InventoryItem{
		{ID: "a", Name: "Amoxicillin", Quantity: 20, MinLevel: 50, Category: models.CategoryCritical, LastUpdated: time.Now()},
		{ID: "b", Name: "Paracetamol", Quantity: 400, MinLevel: 100, Category: models.CategoryEssential, LastUpdated: time.Now()},
		{ID: "c", Name: "Gauze", Quantity: 5, MinLevel: 30, Category: models.CategoryEssential, LastUpdated: time.Now()},
	}))

	low, err := svc.LowStock()
	require.NoError(t, err)
	require.Len(t, low, 2)

	critical, err := svc.CriticalShortages()
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "a", critical[0].ID)
}
