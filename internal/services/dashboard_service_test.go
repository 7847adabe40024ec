package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppulse/internal/orders"
)

type stubLoader struct {
	table orders.Table
	err   error
	calls int
}

func (s *stubLoader) Load(ctx context.Context) (orders.Table, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

type recordingNotifier struct {
	sources []string
}

func (r *recordingNotifier) BroadcastRefresh(source string) {
	r.sources = append(r.sources, source)
}

func when(year, month, day, hour int) time.Time {
	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
}

func sampleTable() orders.Table {
	return orders.Table{
		{OrderID: "A", CustomerID: "C1", CustomerCity: "sao paulo", CustomerState: "SP", ProductCategory: "toys", PurchasedAt: when(2018, 1, 1, 10), PaymentValue: 10, ReviewScore: intPtr(5)},
		{OrderID: "A", CustomerID: "C1", CustomerCity: "sao paulo", CustomerState: "SP", ProductCategory: "toys", PurchasedAt: when(2018, 1, 1, 10), PaymentValue: 20, ReviewScore: intPtr(5)},
		{OrderID: "B", CustomerID: "C2", CustomerCity: "rio", CustomerState: "RJ", ProductCategory: "books", PurchasedAt: when(2018, 1, 3, 9), PaymentValue: 5, ReviewScore: intPtr(1)},
	}
}

func intPtr(v int) *int { return &v }

func TestDashboardService_SnapshotBeforeLoad(t *testing.T) {
	svc := NewDashboardService(&stubLoader{}, nil)

	_, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)

	_, _, err = svc.Bounds()
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
}

func TestDashboardService_LoadPropagatesError(t *testing.T) {
	loadErr := errors.New("connection refused")
	svc := NewDashboardService(&stubLoader{err: loadErr}, nil)

	err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)
}

func TestDashboardService_SnapshotAggregates(t *testing.T) {
	svc := NewDashboardService(&stubLoader{table: sampleTable()}, nil)
	require.NoError(t, svc.Load(context.Background()))

	snap, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	require.NoError(t, err)

	// Order A has two payment rows but counts once
	assert.Equal(t, 2, snap.TotalOrders)
	assert.InDelta(t, 35.0, snap.TotalRevenue, 1e-9)

	// Jan 1 through Jan 3 with the gap day in between
	require.Len(t, snap.Daily, 3)
	assert.Equal(t, 0, snap.Daily[1].OrderCount)

	require.Len(t, snap.TopCategories, 2)
	assert.Equal(t, "toys", snap.TopCategories[0].Category)
	assert.Equal(t, "books", snap.BottomCategories[0].Category)

	require.Len(t, snap.Cities, 2)
	assert.Equal(t, "sao paulo", snap.Cities[0].Location)
	assert.Equal(t, 2, snap.Cities[0].Count)

	require.Len(t, snap.RFM, 2)
	require.Len(t, snap.Ratings, 2)

	assert.InDelta(t, 1.0, snap.AvgRecency, 1e-9)
	assert.InDelta(t, 1.0, snap.AvgFrequency, 1e-9)
	assert.InDelta(t, 17.5, snap.AvgMonetary, 1e-9)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestDashboardService_SnapshotRespectsRange(t *testing.T) {
	svc := NewDashboardService(&stubLoader{table: sampleTable()}, nil)
	require.NoError(t, svc.Load(context.Background()))

	snap, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, 1, snap.TotalOrders)
	assert.InDelta(t, 30.0, snap.TotalRevenue, 1e-9)
	assert.Len(t, snap.Daily, 1)
}

func TestDashboardService_SnapshotInvalidRange(t *testing.T) {
	svc := NewDashboardService(&stubLoader{table: sampleTable()}, nil)
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.Snapshot(context.Background(), when(2018, 2, 1, 0), when(2018, 1, 1, 0))
	assert.ErrorIs(t, err, orders.ErrInvalidRange)
}

func TestDashboardService_SnapshotMemoized(t *testing.T) {
	svc := NewDashboardService(&stubLoader{table: sampleTable()}, nil)
	require.NoError(t, svc.Load(context.Background()))

	first, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	require.NoError(t, err)

	assert.Same(t, first, second)

	// A different range recomputes
	third, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 2, 0))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestDashboardService_ReloadInvalidatesAndNotifies(t *testing.T) {
	loader := &stubLoader{table: sampleTable()}
	notifier := &recordingNotifier{}
	svc := NewDashboardService(loader, nil)
	svc.SetRefreshNotifier(notifier)
	require.NoError(t, svc.Load(context.Background()))

	first, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	require.NoError(t, err)

	require.NoError(t, svc.Reload(context.Background()))
	assert.Equal(t, []string{"dataset_reload"}, notifier.sources)

	second, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestDashboardService_StaleSnapshotNotServedAfterReload(t *testing.T) {
	loader := &stubLoader{table: sampleTable()}
	svc := NewDashboardService(loader, nil)
	require.NoError(t, svc.Load(context.Background()))

	stale, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	require.NoError(t, err)

	loader.table = sampleTable()[:1]
	require.NoError(t, svc.Reload(context.Background()))

	// A snapshot computed over the pre-reload table can finish after the
	// reload's invalidation and land in the cache
	svc.cacheMu.Lock()
	svc.cacheKey = snapshotKey{from: "2018-01-01", to: "2018-01-31"}
	svc.cacheSnap = stale
	svc.cacheMu.Unlock()

	fresh, err := svc.Snapshot(context.Background(), when(2018, 1, 1, 0), when(2018, 1, 31, 0))
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, 1, fresh.TotalOrders)
	assert.InDelta(t, 10.0, fresh.TotalRevenue, 1e-9)
}

func TestDashboardService_Bounds(t *testing.T) {
	svc := NewDashboardService(&stubLoader{table: sampleTable()}, nil)
	require.NoError(t, svc.Load(context.Background()))

	min, max, err := svc.Bounds()
	require.NoError(t, err)
	assert.Equal(t, when(2018, 1, 1, 10), min)
	assert.Equal(t, when(2018, 1, 3, 9), max)
}
