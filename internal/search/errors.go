package search

import "errors"

// Input validation errors: surfaced immediately, the search never starts.
var (
	ErrNoRoots      = errors.New("no search root selected")
	ErrNoFileTypes  = errors.New("no file type class selected")
	ErrNoReferences = errors.New("no valid reference found in input")
)

// Session errors.
var (
	// ErrSearchRunning is returned when a new search is started while one
	// is Running. The caller must cancel the prior session first.
	ErrSearchRunning = errors.New("a search is already running")

	// ErrAllRootsUnavailable means every selected root was unreachable at
	// start. Distinct from a search that ran and found nothing.
	ErrAllRootsUnavailable = errors.New("all search roots are unavailable")

	// ErrNoResults is returned when results are requested before any
	// session has reached a terminal state.
	ErrNoResults = errors.New("no completed search session")
)

// IsInputError reports whether err is a criteria validation error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoRoots) || errors.Is(err, ErrNoFileTypes) || errors.Is(err, ErrNoReferences)
}
