package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/snapshot"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL wildcard, supporting
// encoded slashes (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusPreconditionFailed, errorBody("checksum mismatch"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListResources handles GET /resources.
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListResources(r.Context())
	writeJSON(w, http.StatusOK, ResourceListResponse{Resources: items, Total: len(items)})
}

// GetNote handles GET /notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path required"))
		return
	}
	detail, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	var detail *NoteDetail
	var err error
	switch {
	case req.Path != "":
		detail, err = h.svc.CreateNote(r.Context(), req.Path, []byte(req.Content))
	case req.Title != "":
		detail, err = h.svc.CreateFromTitle(r.Context(), req.Dir, req.Title, []byte(req.Content))
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("path or title required"))
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// UpdateNote handles PUT /notes/*. The If-Match header carries the
// expected content checksum for optimistic concurrency.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path required"))
		return
	}
	var req UpdateNoteRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	detail, err := h.svc.UpdateNote(r.Context(), path, []byte(req.Content), r.Header.Get("If-Match"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteNote handles DELETE /notes/*.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path required"))
		return
	}
	if err := h.svc.DeleteNote(r.Context(), path); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNote handles POST /notes/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteRequest
	if err := decodeBody(r.Body, &req); err != nil || req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to required"))
		return
	}
	detail, err := h.svc.MoveNote(r.Context(), req.From, req.To)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Resolve handles GET /resolve?ref=...&origin=...
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("ref required"))
		return
	}
	target := h.svc.Resolve(r.Context(), ref, r.URL.Query().Get("origin"))
	writeJSON(w, http.StatusOK, ResolveResponse{Ref: ref, Target: target, Found: target != ""})
}

// Backlinks handles GET /backlinks?path=...
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	connections(w, r, h.svc.Backlinks)
}

// Outlinks handles GET /outlinks?path=...
func (h *Handler) Outlinks(w http.ResponseWriter, r *http.Request) {
	connections(w, r, h.svc.Outlinks)
}

func connections(w http.ResponseWriter, r *http.Request, query func(context.Context, string) []model.Connection) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path required"))
		return
	}
	conns := query(r.Context(), path)
	if conns == nil {
		conns = []model.Connection{}
	}
	writeJSON(w, http.StatusOK, ConnectionsResponse{Connections: conns})
}

// Graph handles GET /graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GraphResponse{
		Nodes: h.svc.ListResources(r.Context()),
		Links: h.svc.Connections(r.Context()),
	})
}

// Search handles GET /search?q=...&limit=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []snapshot.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func decodeBody(body io.ReadCloser, v any) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}
