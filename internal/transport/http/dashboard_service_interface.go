package http

import (
	"context"
	"time"

	"shoppulse/internal/orders"
	"shoppulse/internal/services"
)

// DashboardServiceInterface defines the service contract the handlers
// depend on, so tests can substitute a stub.
type DashboardServiceInterface interface {
	Snapshot(ctx context.Context, from, to time.Time) (*services.DashboardSnapshot, error)
	Bounds() (min, max time.Time, err error)
	Table(from, to time.Time) (orders.Table, error)
	Reload(ctx context.Context) error
}

// SnapshotExporterInterface writes snapshots to disk for download
type SnapshotExporterInterface interface {
	ExportCSV(snap *services.DashboardSnapshot) (string, error)
	ExportExcel(snap *services.DashboardSnapshot) (string, error)
}
