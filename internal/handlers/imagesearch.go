package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"

	"refsearch/internal/imagehash"
	"refsearch/internal/logging"
	"refsearch/internal/search"
)

// maxUploadBytes bounds the multipart form held in memory; larger
// reference images spill to a temp file.
const maxUploadBytes = 32 << 20

// ImageSearch handles POST /api/image-search. The request is a multipart
// form with the reference image in the "image" field, an optional
// "threshold" (maximum Hamming distance, default 1) and optional repeated
// "roots" fields. Unlike reference searches this runs synchronously: the
// response carries the ranked matches.
func (h *Handlers) ImageSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing image file: "+err.Error())
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not decode reference image: "+err.Error())
		return
	}

	threshold := imagehash.DefaultThreshold
	if raw := r.FormValue("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > imagehash.BitLength {
			writeJSONError(w, http.StatusBadRequest, "threshold must be an integer between 0 and 64")
			return
		}
		threshold = parsed
	}

	roots := h.searchRoots(r.Form["roots"])
	logging.Info("image search requested: %s, threshold %d, %d roots",
		header.Filename, threshold, len(roots))

	matcher := &imagehash.Matcher{
		Threshold:       threshold,
		ResolveSymlinks: h.config.ResolveSymlinks,
	}

	var matches []imagehash.Match
	err = h.svc.RunExclusive("image", func(ctx context.Context, report func(search.ProgressEvent)) error {
		var searchErr error
		matches, searchErr = matcher.Search(ctx, img, roots, report)
		return searchErr
	})
	if err != nil {
		switch {
		case errors.Is(err, search.ErrSearchRunning):
			writeJSONError(w, http.StatusConflict, err.Error())
		case search.IsInputError(err):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, search.ErrAllRootsUnavailable):
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":     snap.State,
		"threshold": threshold,
		"matches":   matches,
	})
}
