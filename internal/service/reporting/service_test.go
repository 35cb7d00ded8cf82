package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store/sqlite"
)

var clock = time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)

type capturingSheet struct {
	sheetRange string
	row        []interface{}
	calls      int
}

func (c *capturingSheet) AppendRow(_ context.Context, sheetRange string, values []interface{}) error {
	c.sheetRange = sheetRange
	c.row = values
	c.calls++
	return nil
}

func newService(t *testing.T, sheet *capturingSheet) *Service {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var svc *Service
	if sheet != nil {
		svc = NewService(st, sheet, nil)
	} else {
		svc = NewService(st, nil, nil)
	}
	svc.now = func() time.Time { return clock }

	require.NoError(t, st.ReplaceLogs([]models.ConsumptionLog{
		{ID: "l1", ItemID: "1", ItemName: "Paracetamol", QuantityUsed: 10, Date: clock.AddDate(0, 0, -3), SaleAmount: 50},
		{ID: "l2", ItemID: "1", ItemName: "Paracetamol", QuantityUsed: 5, Date: clock.Add(-2 * time.Hour), SaleAmount: 25},
		{ID: "l3", ItemID: "2", ItemName: "Amoxicillin", QuantityUsed: 2, Date: clock.Add(-time.Hour), SaleAmount: 31},
		{ID: "l4", ItemID: "3", ItemName: "ORS", QuantityUsed: 40, Date: clock.AddDate(0, 0, -10)},
	}))
	return svc
}

func TestTotalRevenue(t *testing.T) {
	svc := newService(t, nil)

	total, err := svc.TotalRevenue()
	require.NoError(t, err)
	assert.InDelta(t, 106.0, total, 1e-9, "non-sale logs contribute nothing")
}

func TestRevenueBetween(t *testing.T) {
	svc := newService(t, nil)

	total, err := svc.RevenueBetween(clock.AddDate(0, 0, -1), clock)
	require.NoError(t, err)
	assert.InDelta(t, 56.0, total, 1e-9)
}

func TestTopConsumptionRanking(t *testing.T) {
	svc := newService(t, nil)

	ranked, err := svc.TopConsumption(2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "ORS", ranked[0].ItemName)
	assert.Equal(t, 40, ranked[0].TotalUsed)
	assert.Equal(t, "Paracetamol", ranked[1].ItemName)
	assert.Equal(t, 15, ranked[1].TotalUsed)
	assert.InDelta(t, 75.0, ranked[1].Revenue, 1e-9)
}

func TestExportDailySales(t *testing.T) {
	sheet := &capturingSheet{}
	svc := newService(t, sheet)

	require.NoError(t, svc.ExportDailySales(context.Background()))
	require.Equal(t, 1, sheet.calls)
	assert.Equal(t, salesExportRange, sheet.sheetRange)
	// Only today's two sale logs fall inside the export window.
	assert.Equal(t, []interface{}{"2026-06-01", 2, 7, 56.0}, sheet.row)
}

func TestExportWithoutSheetIsNoOp(t *testing.T) {
	svc := newService(t, nil)
	assert.NoError(t, svc.ExportDailySales(context.Background()))
}
