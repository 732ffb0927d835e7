package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"refsearch/internal/logging"
	"refsearch/internal/reference"
	"refsearch/internal/search"
)

// searchRequest is the body of POST /api/search. Text is a freeform block
// of pasted references; Classes selects file-type classes by name; Roots
// overrides the configured default roots when non-empty.
type searchRequest struct {
	Text             string   `json:"text"`
	Classes          []string `json:"classes"`
	CustomExtensions []string `json:"customExtensions"`
	Roots            []string `json:"roots"`
}

// StartSearch handles POST /api/search
func (h *Handlers) StartSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	tokens := reference.ParseBlock(req.Text)
	if len(tokens) == 0 {
		writeJSONError(w, http.StatusBadRequest, search.ErrNoReferences.Error())
		return
	}

	classes := make([]search.Class, 0, len(req.Classes))
	for _, name := range req.Classes {
		class, ok := search.ParseClass(name)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "unknown file type class: "+name)
			return
		}
		classes = append(classes, class)
	}

	criteria, err := search.NewCriteria(tokens, classes, req.CustomExtensions,
		h.searchRoots(req.Roots), h.config.ResolveSymlinks)
	if err != nil {
		if search.IsInputError(err) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id, err := h.svc.Start(criteria)
	if err != nil {
		if errors.Is(err, search.ErrSearchRunning) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":         id,
		"references": tokens,
	})
}

// GetProgress handles GET /api/search/progress
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// CancelSearch handles POST /api/search/cancel
func (h *Handlers) CancelSearch(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Cancel() {
		writeJSONError(w, http.StatusConflict, "no search is running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// GetResults handles GET /api/search/results
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	groups, state, err := h.svc.Results()
	if err != nil {
		switch {
		case errors.Is(err, search.ErrSearchRunning):
			writeJSONError(w, http.StatusConflict, err.Error())
		case errors.Is(err, search.ErrNoResults):
			writeJSONError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, search.ErrAllRootsUnavailable):
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":    state,
		"cached":   snap.Cached,
		"groups":   groups,
		"notFound": search.NotFoundKeys(groups),
	})
}

// ResetSearch handles POST /api/search/reset
func (h *Handlers) ResetSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(); err != nil {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	logging.Info("search session reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
