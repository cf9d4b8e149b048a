package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const readyTimeout = 2 * time.Second

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	backend string
	checks  map[string]CheckFunc
}

// NewHealthHandler reports the booking backend in use. checks are run by
// Ready, keyed by dependency name.
func NewHealthHandler(backend string, checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{backend: backend, checks: checks}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": h.backend,
	})
}

// Ready handles GET /ready. Any failing dependency makes it a 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, map[string]any{
		"backend": h.backend,
		"checks":  results,
	})
}
