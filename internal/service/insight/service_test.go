package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store/sqlite"
)

type stubClient struct {
	insight models.InventoryInsight
	err     error
	got     []models.InsightItem
}

func (s *stubClient) AnalyzeInventory(_ context.Context, items []models.InsightItem) (models.InventoryInsight, error) {
	s.got = items
	return s.insight, s.err
}

func TestMissingClientReturnsConfigFallback(t *testing.T) {
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := NewService(st, nil, nil)
	insight, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Contains(t, insight.Summary, "configuration missing")
	assert.Empty(t, insight.UrgentActions)
}

func TestClientFailureReturnsDegradedFallback(t *testing.T) {
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client := &stubClient{err: errors.New("timeout")}
	svc := NewService(st, client, nil)

	insight, err := svc.Analyze(context.Background())
	require.NoError(t, err, "collaborator failures never propagate")
	assert.Contains(t, insight.Summary, "Temporary connection issue")
	assert.Equal(t, []string{"Check internet connection"}, insight.UrgentActions)
}

func TestSnapshotIsReducedAndDateOnly(t *testing.T) {
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client := &stubClient{insight: models.InventoryInsight{Summary: "All good."}}
	svc := NewService(st, client, nil)

	insight, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "All good.", insight.Summary)

	require.Len(t, client.got, 4, "seed inventory snapshot")
	for _, item := range client.got {
		assert.Len(t, item.Expiry, len("2006-01-02"))
	}
}
