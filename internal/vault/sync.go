// Package vault loads Markdown documents from storage into the workspace
// graph and keeps the two in sync, both by full scans and by file-system
// events.
package vault

import (
	"log/slog"
	"sync"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/uri"
)

// Syncer feeds parsed documents into the workspace. It remembers the
// checksum of each indexed file so unchanged files are skipped. The
// workspace and the checksum map are both guarded by the shared lock,
// which serializes the syncer against the HTTP and MCP layers.
type Syncer struct {
	ws        *graph.Workspace
	store     storage.Provider
	mu        *sync.RWMutex
	logger    *slog.Logger
	checksums map[string]string
}

// NewSyncer creates a syncer over the given workspace and storage.
func NewSyncer(ws *graph.Workspace, store storage.Provider, mu *sync.RWMutex, logger *slog.Logger) *Syncer {
	return &Syncer{
		ws:        ws,
		store:     store,
		mu:        mu,
		logger:    logger,
		checksums: make(map[string]string),
	}
}

// Sync walks the workspace root and brings the graph up to date: new and
// changed files are parsed and set, files removed from disk are deleted.
func (s *Syncer) Sync() error {
	infos, err := s.store.List("")
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		s.mu.RLock()
		unchanged := s.checksums[info.Path] == info.Checksum
		s.mu.RUnlock()
		if unchanged {
			continue
		}
		data, err := s.store.Read(info.Path)
		if err != nil {
			s.logger.Warn("vault: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if err := s.IndexFile(info.Path, data); err != nil {
			s.logger.Warn("vault: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			s.logger.Debug("vault: indexed", slog.String("path", info.Path))
		}
	}

	s.mu.RLock()
	var stale []string
	for p := range s.checksums {
		if _, ok := disk[p]; !ok {
			stale = append(stale, p)
		}
	}
	s.mu.RUnlock()
	for _, p := range stale {
		s.RemoveFile(p)
		s.logger.Debug("vault: removed stale", slog.String("path", p))
	}
	return nil
}

// IndexFile parses data and sets the resulting note in the workspace.
func (s *Syncer) IndexFile(path string, data []byte) error {
	note, err := parser.ToNote(path, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ws.Set(note)
	s.checksums[path] = checksum.Sum(data)
	s.mu.Unlock()
	return nil
}

// RemoveFile deletes the note at path from the workspace.
func (s *Syncer) RemoveFile(path string) {
	s.mu.Lock()
	s.ws.Delete(uri.ForDocument(path))
	delete(s.checksums, path)
	s.mu.Unlock()
}
