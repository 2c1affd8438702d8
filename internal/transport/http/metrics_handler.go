package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"wcabridge/internal/services"
	api "wcabridge/pkg/contracts/api/v1"
)

// MetricsHandler exposes conversion statistics and, when configured, the
// Prometheus scrape endpoint
type MetricsHandler struct {
	store      *services.ConversionStore
	prometheus http.Handler
	started    time.Time
}

// NewMetricsHandler creates a new metrics handler. prometheus may be nil.
func NewMetricsHandler(store *services.ConversionStore, prometheus http.Handler) *MetricsHandler {
	return &MetricsHandler{
		store:      store,
		prometheus: prometheus,
		started:    time.Now(),
	}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStats)
	if h.prometheus != nil {
		r.Handle("/prometheus", h.prometheus)
	}
	return r
}

// GetStats handles GET /api/metrics
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.StoreStats{
		StoredConversions: h.store.Len(),
		UptimeSeconds:     time.Since(h.started).Seconds(),
	})
}
