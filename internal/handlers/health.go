package handlers

import (
	"net/http"
	"os"
)

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	roots := h.config.Roots
	reachable := 0
	for _, root := range roots {
		if _, err := os.Stat(root); err == nil {
			reachable++
		}
	}

	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"searchState":     snap.State,
		"rootsConfigured": len(roots),
		"rootsReachable":  reachable,
	})
}

// LivenessCheck handles GET /livez
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck handles GET /readyz. The service is ready when it can
// accept a search: either idle or holding terminal results. A running
// session still counts as ready since progress and cancel endpoints work.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ready",
		"searchState": snap.State,
	})
}
