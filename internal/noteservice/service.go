// Package noteservice coordinates storage, parsing, the workspace graph,
// and the snapshot for the HTTP and MCP surfaces.
package noteservice

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	goslug "github.com/gosimple/slug"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/snapshot"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/uri"
	"github.com/starford/ansuz/internal/vault"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Checksum    string             `json:"checksum"`
	Frontmatter map[string]any     `json:"frontmatter,omitempty"`
	Links       []model.Connection `json:"links"`
	Backlinks   []model.Connection `json:"backlinks"`
}

// ResourceListItem is a lightweight item in a list response.
type ResourceListItem struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
}

// Service coordinates workspace operations. Reads take the shared lock in
// read mode; writes go through the vault syncer, which locks exclusively.
type Service struct {
	store  storage.Provider
	ws     *graph.Workspace
	syncer *vault.Syncer
	snap   *snapshot.DB
	mu     *sync.RWMutex
}

// New creates a note service.
func New(store storage.Provider, ws *graph.Workspace, syncer *vault.Syncer, snap *snapshot.DB, mu *sync.RWMutex) *Service {
	return &Service{store: store, ws: ws, syncer: syncer, snap: snap, mu: mu}
}

// GetNote reads a note from storage and enriches it with its resolved
// links and backlinks.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data)
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.syncer.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// CreateFromTitle slugifies a title into a document path under dir and
// creates the note there.
func (s *Service) CreateFromTitle(ctx context.Context, dir, title string, content []byte) (*NoteDetail, error) {
	name := goslug.Make(title)
	if name == "" {
		name = "untitled"
	}
	path := name + uri.DefaultExtension
	if dir != "" {
		path = strings.TrimSuffix(dir, "/") + "/" + path
	}
	return s.CreateNote(ctx, path, content)
}

// UpdateNote writes updated content with optimistic concurrency: when
// ifMatch is non-empty it must equal the current content checksum.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.syncer.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// DeleteNote removes a note from storage and the workspace.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	s.syncer.RemoveFile(path)
	return nil
}

// MoveNote renames a note, re-targeting its graph entry.
func (s *Service) MoveNote(_ context.Context, oldPath, newPath string) (*NoteDetail, error) {
	if _, err := s.store.Read(newPath); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Move(oldPath, newPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	s.syncer.RemoveFile(oldPath)
	data, err := s.store.Read(newPath)
	if err != nil {
		return nil, err
	}
	if err := s.syncer.IndexFile(newPath, data); err != nil {
		return nil, err
	}
	return s.buildDetail(newPath, data)
}

// ListResources returns every workspace resource: notes first, then
// placeholders.
func (s *Service) ListResources(_ context.Context) []ResourceListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resources := s.ws.List()
	items := make([]ResourceListItem, 0, len(resources))
	for _, r := range resources {
		switch res := r.(type) {
		case *model.Note:
			items = append(items, ResourceListItem{Path: res.ID.String(), Kind: "note", Title: res.Title})
		case model.Placeholder:
			items = append(items, ResourceListItem{Path: res.ID.String(), Kind: "placeholder"})
		}
	}
	return items
}

// Resolve resolves a raw reference against an optional origin path and
// returns the matched resource's identifier, or "" when nothing matches.
func (s *Service) Resolve(_ context.Context, raw, originPath string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var origin *uri.URI
	if originPath != "" {
		o := uri.ForDocument(originPath)
		origin = &o
	}
	if res := s.ws.Find(raw, origin); res != nil {
		return res.Identifier().String()
	}
	return ""
}

// Backlinks returns the connections targeting path.
func (s *Service) Backlinks(_ context.Context, path string) []model.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws.Backlinks(uri.ForDocument(path))
}

// Outlinks returns the connections originating at path.
func (s *Service) Outlinks(_ context.Context, path string) []model.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws.Links(uri.ForDocument(path))
}

// Connections returns every edge in the graph.
func (s *Service) Connections(_ context.Context) []model.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws.Connections()
}

// Search delegates to the snapshot.
func (s *Service) Search(_ context.Context, query string, limit int) ([]snapshot.SearchResult, error) {
	return s.snap.Search(query, limit)
}

func (s *Service) buildDetail(path string, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := uri.ForDocument(path)
	links := s.ws.Links(id)
	if links == nil {
		links = []model.Connection{}
	}
	backlinks := s.ws.Backlinks(id)
	if backlinks == nil {
		backlinks = []model.Connection{}
	}
	return &NoteDetail{
		Path:        uri.Canonical(path),
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Frontmatter: res.Frontmatter,
		Links:       links,
		Backlinks:   backlinks,
	}, nil
}
