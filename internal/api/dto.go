package api

import (
	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/snapshot"
)

// CreateNoteRequest is the request body for creating a note. Either Path
// or Title must be present; Title is slugified into a path when Path is
// empty.
type CreateNoteRequest struct {
	Path    string `json:"path,omitempty"`
	Title   string `json:"title,omitempty"`
	Dir     string `json:"dir,omitempty"`
	Content string `json:"content"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// MoveNoteRequest is the request body for renaming a note.
type MoveNoteRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NoteDetail is the full note response type.
type NoteDetail = noteservice.NoteDetail

// ResourceListResponse wraps resource listings.
type ResourceListResponse struct {
	Resources []noteservice.ResourceListItem `json:"resources"`
	Total     int                            `json:"total"`
}

// ResolveResponse is the result of a reference resolution.
type ResolveResponse struct {
	Ref    string `json:"ref"`
	Target string `json:"target,omitempty"`
	Found  bool   `json:"found"`
}

// GraphResponse is a full dump of the reference graph.
type GraphResponse struct {
	Nodes []noteservice.ResourceListItem `json:"nodes"`
	Links []model.Connection             `json:"links"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []snapshot.SearchResult `json:"results"`
}

// ConnectionsResponse wraps a connection listing.
type ConnectionsResponse struct {
	Connections []model.Connection `json:"connections"`
}
