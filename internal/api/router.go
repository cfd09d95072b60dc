package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesplit/internal/refactorservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *refactorservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Get("/backlinks", h.Backlinks)

	r.Route("/refactor", func(r chi.Router) {
		r.Post("/extract", h.Extract)
		r.Post("/split", h.Split)
		r.Post("/headings", h.Headings)
	})
	r.Get("/history", h.History)

	r.Post("/render", h.Render)
	r.Post("/metadata", h.Metadata)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
