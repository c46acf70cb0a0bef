package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slotwise/marketplace/internal/observability/metrics"
)

// StatsHandler serves a JSON summary of booking metrics.
type StatsHandler struct {
	gatherer prometheus.Gatherer
}

func NewStatsHandler(gatherer prometheus.Gatherer) *StatsHandler {
	return &StatsHandler{gatherer: gatherer}
}

// ServeHTTP handles GET /stats
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.TakeSnapshot(h.gatherer))
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
