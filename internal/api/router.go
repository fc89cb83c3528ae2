package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stemgraph/stemgraph/internal/moduleservice"
)

// NewRouter creates a chi router with all API routes mounted. Reads are
// open; the single write endpoint sits behind the X-API-Key check.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *moduleservice.Service, writeToken TokenSource, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Graph listing, served from the cache.
	r.Get("/graph", h.Graph)

	// Module lookup, creation, and dependency resolution.
	r.Route("/modules", func(r chi.Router) {
		r.With(WriteAuth(writeToken)).Post("/", h.CreateModule)
		r.Get("/{identifier}", h.GetModule)
		r.Get("/{identifier}/builds-on", h.BuildsOn)
		r.Get("/{identifier}/builds-on/tree", h.BuildsOnTree)
	})

	// Refresh event stream.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
