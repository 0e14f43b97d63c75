package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted. sseHandler,
// if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Workspace resources and graph queries.
	r.Get("/resources", h.ListResources)
	r.Get("/graph", h.Graph)
	r.Get("/resolve", h.Resolve)
	r.Get("/backlinks", h.Backlinks)
	r.Get("/outlinks", h.Outlinks)
	r.Get("/search", h.Search)

	// Notes CRUD.
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/move", h.MoveNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
