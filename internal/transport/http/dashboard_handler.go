package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"shoppulse/internal/analytics"
	apierrors "shoppulse/internal/errors"
	"shoppulse/internal/orders"
	"shoppulse/internal/services"
)

const dateLayout = "2006-01-02"

// DashboardHandler serves the dashboard API with RFC 7807 error responses
type DashboardHandler struct {
	service      DashboardServiceInterface
	exporter     SnapshotExporterInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, exporter SnapshotExporterInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		exporter:     exporter,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/daily", h.GetDaily)
	r.Get("/categories", h.GetCategories)
	r.Get("/geo", h.GetGeo)
	r.Get("/rfm", h.GetRFM)
	r.Get("/ratings", h.GetRatings)
	r.Get("/bounds", h.GetBounds)
	r.Post("/reload", h.Reload)
	r.Get("/export", h.Export)

	return r
}

// snapshotQuery carries the validated query parameters of a snapshot request
type snapshotQuery struct {
	From      time.Time
	To        time.Time
	Direction string `validate:"omitempty,oneof=top bottom"`
	Dimension string `validate:"omitempty,oneof=city state"`
	Format    string `validate:"omitempty,oneof=csv xlsx"`
	Limit     int    `validate:"min=0,max=1000"`
}

// parseQuery reads from/to (defaulting each missing side to the dataset
// bounds) and the enum parameters.
func (h *DashboardHandler) parseQuery(r *http.Request) (snapshotQuery, error) {
	q := snapshotQuery{
		Direction: r.URL.Query().Get("direction"),
		Dimension: r.URL.Query().Get("dimension"),
		Format:    r.URL.Query().Get("format"),
	}

	min, max, err := h.service.Bounds()
	if err != nil {
		return q, err
	}
	q.From, q.To = min, max

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return q, apierrors.ErrValidation("from", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
		}
		q.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return q, apierrors.ErrValidation("to", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
		}
		q.To = t
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, apierrors.ErrValidation("limit", fmt.Sprintf("invalid value %q, expected an integer", raw))
		}
		q.Limit = n
	}

	if err := h.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return q, apierrors.ErrValidation(verrs[0].Field(), fmt.Sprintf("invalid value %q", verrs[0].Value()))
		}
		return q, apierrors.InvalidRequestWithError(err)
	}

	return q, nil
}

// mapDomainError converts domain errors into API errors before the
// RFC 7807 handler renders them.
func mapDomainError(err error) error {
	var loadErr *orders.LoadError
	var parseErr *orders.ParseError

	switch {
	case errors.Is(err, orders.ErrInvalidRange):
		return apierrors.New(http.StatusBadRequest, "INVALID_RANGE", err.Error())
	case errors.Is(err, services.ErrDatasetNotLoaded):
		return apierrors.ErrServiceUnavailable
	case errors.As(err, &loadErr):
		return apierrors.DatasetUnavailableError(err)
	case errors.As(err, &parseErr):
		return apierrors.DatasetMalformedError(err)
	default:
		return err
	}
}

func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) (*services.DashboardSnapshot, snapshotQuery, bool) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapDomainError(err))
		return nil, q, false
	}

	snap, err := h.service.Snapshot(r.Context(), q.From, q.To)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapDomainError(err))
		return nil, q, false
	}
	return snap, q, true
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, snap)
}

// GetDaily handles GET /api/dashboard/daily
func (h *DashboardHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"from":          snap.From.Format(dateLayout),
		"to":            snap.To.Format(dateLayout),
		"total_orders":  snap.TotalOrders,
		"total_revenue": snap.TotalRevenue,
		"daily":         snap.Daily,
	})
}

// GetCategories handles GET /api/dashboard/categories
func (h *DashboardHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapDomainError(err))
		return
	}

	direction := analytics.Top
	if q.Direction == string(analytics.Bottom) {
		direction = analytics.Bottom
	}

	var ranks []analytics.CategoryRank
	if q.Limit > 0 && q.Limit != analytics.DefaultLimit {
		// Non-default limits bypass the memoized snapshot
		table, err := h.service.Table(q.From, q.To)
		if err != nil {
			h.errorHandler.HandleError(w, r, mapDomainError(err))
			return
		}
		ranks = analytics.CategoryRanks(table, direction, q.Limit)
	} else {
		snap, err := h.service.Snapshot(r.Context(), q.From, q.To)
		if err != nil {
			h.errorHandler.HandleError(w, r, mapDomainError(err))
			return
		}
		if direction == analytics.Bottom {
			ranks = snap.BottomCategories
		} else {
			ranks = snap.TopCategories
		}
	}

	render.JSON(w, r, map[string]interface{}{
		"direction":  direction,
		"categories": ranks,
	})
}

// GetGeo handles GET /api/dashboard/geo
func (h *DashboardHandler) GetGeo(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapDomainError(err))
		return
	}

	dimension := analytics.City
	if q.Dimension == string(analytics.State) {
		dimension = analytics.State
	}

	var counts []analytics.GeoCount
	if q.Limit > 0 && q.Limit != analytics.DefaultLimit {
		table, err := h.service.Table(q.From, q.To)
		if err != nil {
			h.errorHandler.HandleError(w, r, mapDomainError(err))
			return
		}
		counts = analytics.GeoCounts(table, dimension, q.Limit)
	} else {
		snap, err := h.service.Snapshot(r.Context(), q.From, q.To)
		if err != nil {
			h.errorHandler.HandleError(w, r, mapDomainError(err))
			return
		}
		if dimension == analytics.State {
			counts = snap.States
		} else {
			counts = snap.Cities
		}
	}

	render.JSON(w, r, map[string]interface{}{
		"dimension": dimension,
		"locations": counts,
	})
}

// GetRFM handles GET /api/dashboard/rfm
func (h *DashboardHandler) GetRFM(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"customers":     snap.RFM,
		"avg_recency":   snap.AvgRecency,
		"avg_frequency": snap.AvgFrequency,
		"avg_monetary":  snap.AvgMonetary,
	})
}

// GetRatings handles GET /api/dashboard/ratings
func (h *DashboardHandler) GetRatings(w http.ResponseWriter, r *http.Request) {
	snap, _, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"ratings": snap.Ratings,
	})
}

// GetBounds handles GET /api/dashboard/bounds
func (h *DashboardHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	min, max, err := h.service.Bounds()
	if err != nil {
		h.errorHandler.HandleError(w, r, mapDomainError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"min_date": min.Format(dateLayout),
		"max_date": max.Format(dateLayout),
	})
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "dataset reload requested")

	if err := h.service.Reload(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, mapDomainError(err))
		return
	}

	min, max, err := h.service.Bounds()
	if err != nil {
		h.errorHandler.HandleError(w, r, mapDomainError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status":   "reloaded",
		"min_date": min.Format(dateLayout),
		"max_date": max.Format(dateLayout),
	})
}

// Export handles GET /api/dashboard/export
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, q, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	format := q.Format
	if format == "" {
		format = "xlsx"
	}

	if format == "csv" {
		// CSV export is a directory of files, so respond with its location
		path, err := h.exporter.ExportCSV(snap)
		if err != nil {
			h.errorHandler.HandleError(w, r, fmt.Errorf("export snapshot: %w", err))
			return
		}
		h.logger.InfoContext(r.Context(), "snapshot exported",
			slog.String("format", format),
			slog.String("path", path))
		render.JSON(w, r, map[string]interface{}{
			"format": format,
			"path":   path,
		})
		return
	}

	path, err := h.exporter.ExportExcel(snap)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("export snapshot: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "snapshot exported",
		slog.String("format", format),
		slog.String("path", path))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
