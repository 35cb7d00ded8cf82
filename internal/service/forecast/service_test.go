package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store/sqlite"
)

var clock = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := NewService(st, nil)
	svc.now = func() time.Time { return clock }
	return svc
}

func TestLinearRateProjection(t *testing.T) {
	svc := newService(t)

	require.NoError(t, svc.store.ReplaceInventory([]models.InventoryItem{
		{ID: "p1", Name: "Paracetamol", Quantity: 100, MinLevel: 10},
	}))
	require.NoError(t, svc.store.ReplaceLogs([]models.ConsumptionLog{
		{ID: "l1", ItemID: "p1", QuantityUsed: 12, Date: clock.AddDate(0, 0, -10)},
		{ID: "l2", ItemID: "p1", QuantityUsed: 8, Date: clock.AddDate(0, 0, -3)},
	}))

	forecasts, err := svc.ForecastAll()
	require.NoError(t, err)
	require.Len(t, forecasts, 1)

	// 20 units over 10 elapsed days: 2.0/day, 50 days of stock left.
	assert.InDelta(t, 2.0, forecasts[0].DailyRate, 1e-9)
	assert.Equal(t, 50, forecasts[0].DaysLeft)
	assert.False(t, forecasts[0].AtRisk(), "50 days of cover is above the 30-day horizon")
}

func TestNoHistoryYieldsSentinel(t *testing.T) {
	svc := newService(t)

	require.NoError(t, svc.store.ReplaceInventory([]models.InventoryItem{
		{ID: "p1", Name: "Gauze", Quantity: 1},
		{ID: "p2", Name: "Gloves", Quantity: 100000},
	}))
	require.NoError(t, svc.store.ReplaceLogs(nil))

	forecasts, err := svc.ForecastAll()
	require.NoError(t, err)
	for _, f := range forecasts {
		assert.Equal(t, models.DaysLeftSentinel, f.DaysLeft)
		assert.Zero(t, f.DailyRate)
		assert.False(t, f.AtRisk())
	}
}

func TestSameDayLogsUseOneEffectiveDay(t *testing.T) {
	svc := newService(t)

	require.NoError(t, svc.store.ReplaceInventory([]models.InventoryItem{
		{ID: "p1", Name: "ORS", Quantity: 30},
	}))
	require.NoError(t, svc.store.ReplaceLogs([]models.ConsumptionLog{
		{ID: "l1", ItemID: "p1", QuantityUsed: 10, Date: clock},
	}))

	forecasts, err := svc.ForecastAll()
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.InDelta(t, 10.0, forecasts[0].DailyRate, 1e-9)
	assert.Equal(t, 3, forecasts[0].DaysLeft)
}

func TestAtRiskSortedByDaysLeft(t *testing.T) {
	svc := newService(t)

	require.NoError(t, svc.store.ReplaceInventory([]models.InventoryItem{
		{ID: "slow", Name: "Slow burner", Quantity: 200},
		{ID: "soon", Name: "Runs out soon", Quantity: 10},
		{ID: "sooner", Name: "Runs out sooner", Quantity: 4},
	}))
	require.NoError(t, svc.store.ReplaceLogs([]models.ConsumptionLog{
		{ID: "l1", ItemID: "slow", QuantityUsed: 10, Date: clock.AddDate(0, 0, -10)},
		{ID: "l2", ItemID: "soon", QuantityUsed: 20, Date: clock.AddDate(0, 0, -10)},
		{ID: "l3", ItemID: "sooner", QuantityUsed: 20, Date: clock.AddDate(0, 0, -10)},
	}))

	risky, err := svc.AtRisk()
	require.NoError(t, err)
	require.Len(t, risky, 2, "the 200-day item must not be flagged")
	assert.Equal(t, "sooner", risky[0].Item.ID)
	assert.Equal(t, "soon", risky[1].Item.ID)
}
