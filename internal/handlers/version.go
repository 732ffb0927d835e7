package handlers

import (
	"net/http"

	"refsearch/internal/startup"
)

// GetVersion handles GET /version
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
