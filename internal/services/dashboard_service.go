package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"shoppulse/internal/analytics"
	"shoppulse/internal/orders"
)

// ErrDatasetNotLoaded is returned when a snapshot is requested before the
// base table has been loaded.
var ErrDatasetNotLoaded = errors.New("order dataset not loaded")

var (
	snapshotRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoppulse_snapshot_recomputes_total",
		Help: "Number of full dashboard snapshot recomputations.",
	})
	snapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoppulse_snapshot_cache_hits_total",
		Help: "Number of dashboard snapshot requests served from the memoized result.",
	})
	datasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shoppulse_dataset_rows",
		Help: "Row count of the loaded order dataset.",
	})
)

// RefreshNotifier is implemented by the WebSocket hub to push dataset
// refresh events to connected dashboards.
type RefreshNotifier interface {
	BroadcastRefresh(source string)
}

// DashboardSnapshot bundles every summary table computed for one date
// range, plus the headline figures the dashboard shows above the charts.
type DashboardSnapshot struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	TotalOrders  int     `json:"total_orders"`
	TotalRevenue float64 `json:"total_revenue"`

	Daily            []analytics.DailyMetric  `json:"daily"`
	TopCategories    []analytics.CategoryRank `json:"top_categories"`
	BottomCategories []analytics.CategoryRank `json:"bottom_categories"`
	Cities           []analytics.GeoCount     `json:"cities"`
	States           []analytics.GeoCount     `json:"states"`
	RFM              []analytics.RFMEntry     `json:"rfm"`
	Ratings          []analytics.RatingCount  `json:"ratings"`

	AvgRecency   float64 `json:"avg_recency"`
	AvgFrequency float64 `json:"avg_frequency"`
	AvgMonetary  float64 `json:"avg_monetary"`

	GeneratedAt time.Time `json:"generated_at"`
}

// snapshotKey memoizes the latest snapshot per date range
type snapshotKey struct {
	from string
	to   string
}

// OrderLoader abstracts the dataset loader for testing
type OrderLoader interface {
	Load(ctx context.Context) (orders.Table, error)
}

// DashboardService owns the loaded order table and computes dashboard
// snapshots over caller-chosen date windows. Aggregations run over an
// immutable table, so a snapshot never blocks a concurrent reload; a
// reload swaps the table pointer and invalidates the memoized snapshot.
type DashboardService struct {
	loader   OrderLoader
	logger   *slog.Logger
	notifier RefreshNotifier

	mu     sync.RWMutex
	table  orders.Table
	loaded bool
	gen    uint64

	cacheMu   sync.Mutex
	cacheKey  snapshotKey
	cacheSnap *DashboardSnapshot
	cacheGen  uint64
}

// NewDashboardService creates a dashboard service
func NewDashboardService(loader OrderLoader, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		loader: loader,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// SetRefreshNotifier wires the WebSocket hub in after construction
func (s *DashboardService) SetRefreshNotifier(n RefreshNotifier) {
	s.notifier = n
}

// Load fetches the base order table from the configured source
func (s *DashboardService) Load(ctx context.Context) error {
	table, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load order dataset: %w", err)
	}

	s.mu.Lock()
	s.table = table
	s.loaded = true
	s.gen++
	s.mu.Unlock()

	s.invalidate()
	datasetRows.Set(float64(len(table)))

	s.logger.InfoContext(ctx, "order dataset loaded",
		slog.Int("row_count", len(table)))

	return nil
}

// Reload re-fetches the dataset and notifies connected dashboards
func (s *DashboardService) Reload(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.BroadcastRefresh("dataset_reload")
	}
	return nil
}

// Bounds returns the earliest and latest purchase dates of the base
// table, for initializing the dashboard's date picker.
func (s *DashboardService) Bounds() (min, max time.Time, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return time.Time{}, time.Time{}, ErrDatasetNotLoaded
	}
	min, max, _ = s.table.Bounds()
	return min, max, nil
}

// Table returns the filtered sub-table for the given range
func (s *DashboardService) Table(from, to time.Time) (orders.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, ErrDatasetNotLoaded
	}
	return orders.FilterByRange(s.table, from, to)
}

// Snapshot filters the base table to [from, to] and recomputes every
// summary table. The five aggregations read the same immutable filtered
// table and write private outputs, so they run concurrently. The latest
// result is memoized per date range and reused until the range changes
// or the dataset is reloaded. Each memoized snapshot records the table
// generation it was computed from, so a snapshot that raced with a
// reload is never served.
func (s *DashboardService) Snapshot(ctx context.Context, from, to time.Time) (*DashboardSnapshot, error) {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return nil, ErrDatasetNotLoaded
	}
	base, gen := s.table, s.gen
	s.mu.RUnlock()

	key := snapshotKey{from: from.Format("2006-01-02"), to: to.Format("2006-01-02")}

	s.cacheMu.Lock()
	if s.cacheSnap != nil && s.cacheKey == key && s.cacheGen == gen {
		snap := s.cacheSnap
		s.cacheMu.Unlock()
		snapshotCacheHits.Inc()
		return snap, nil
	}
	s.cacheMu.Unlock()

	filtered, err := orders.FilterByRange(base, from, to)
	if err != nil {
		return nil, err
	}

	snap := &DashboardSnapshot{From: orders.DateOf(from), To: orders.DateOf(to)}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Daily = analytics.DailyMetrics(filtered)
		return nil
	})
	g.Go(func() error {
		snap.TopCategories = analytics.CategoryRanks(filtered, analytics.Top, analytics.DefaultLimit)
		snap.BottomCategories = analytics.CategoryRanks(filtered, analytics.Bottom, analytics.DefaultLimit)
		return nil
	})
	g.Go(func() error {
		snap.Cities = analytics.GeoCounts(filtered, analytics.City, analytics.DefaultLimit)
		snap.States = analytics.GeoCounts(filtered, analytics.State, analytics.DefaultLimit)
		return nil
	})
	g.Go(func() error {
		snap.RFM = analytics.RFM(filtered)
		return nil
	})
	g.Go(func() error {
		snap.Ratings = analytics.RatingTally(filtered)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range snap.Daily {
		snap.TotalOrders += m.OrderCount
		snap.TotalRevenue += m.Revenue
	}
	if len(snap.RFM) > 0 {
		var recency, frequency, monetary float64
		for _, e := range snap.RFM {
			recency += float64(e.Recency)
			frequency += float64(e.Frequency)
			monetary += e.Monetary
		}
		n := float64(len(snap.RFM))
		snap.AvgRecency = recency / n
		snap.AvgFrequency = frequency / n
		snap.AvgMonetary = monetary / n
	}
	snap.GeneratedAt = time.Now().UTC()

	snapshotRecomputes.Inc()
	s.logger.InfoContext(ctx, "dashboard snapshot computed",
		slog.String("from", key.from),
		slog.String("to", key.to),
		slog.Int("filtered_rows", len(filtered)),
		slog.Int("daily_buckets", len(snap.Daily)),
		slog.Int("customers", len(snap.RFM)))

	s.cacheMu.Lock()
	s.cacheKey = key
	s.cacheSnap = snap
	s.cacheGen = gen
	s.cacheMu.Unlock()

	return snap, nil
}

// invalidate drops the memoized snapshot after a dataset reload
func (s *DashboardService) invalidate() {
	s.cacheMu.Lock()
	s.cacheSnap = nil
	s.cacheMu.Unlock()
}
