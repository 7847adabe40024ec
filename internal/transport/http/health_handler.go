package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthHandler reports liveness and dataset readiness
type HealthHandler struct {
	service DashboardServiceInterface
	started time.Time
	build   map[string]string
}

// NewHealthHandler creates a health handler carrying the build info
// reported alongside readiness.
func NewHealthHandler(service DashboardServiceInterface, build map[string]string) *HealthHandler {
	return &HealthHandler{
		service: service,
		started: time.Now(),
		build:   build,
	}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	datasetReady := true
	if _, _, err := h.service.Bounds(); err != nil {
		status = "degraded"
		datasetReady = false
	}

	payload := map[string]interface{}{
		"status":        status,
		"dataset_ready": datasetReady,
		"uptime":        time.Since(h.started).String(),
		"build":         h.build,
	}

	if !datasetReady {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, payload)
}
