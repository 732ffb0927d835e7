package handlers

import (
	"refsearch/internal/search"
	"refsearch/internal/startup"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	svc    *search.Service
	config *startup.Config
}

// New creates a Handlers with the given search service and configuration.
func New(svc *search.Service, config *startup.Config) *Handlers {
	return &Handlers{
		svc:    svc,
		config: config,
	}
}

// searchRoots returns the roots to search: the request's roots when
// provided, the configured defaults otherwise.
func (h *Handlers) searchRoots(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return h.config.Roots
}
