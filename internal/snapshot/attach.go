package snapshot

import (
	"log/slog"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/uri"
)

// Attach wires the projection to workspace notifications: note rows follow
// add/update/delete events, and the connection and placeholder mirror is
// refreshed after each one (promotion cascades can rewrite edges of notes
// other than the one the event names). Returns the installed
// subscriptions; dispose them to detach.
func Attach(db *DB, ws *graph.Workspace, store storage.Provider, logger *slog.Logger) []graph.Subscription {
	refresh := func() {
		var placeholders []string
		for _, r := range ws.List() {
			if ph, ok := r.(model.Placeholder); ok {
				placeholders = append(placeholders, ph.ID.Path)
			}
		}
		if err := db.ReplaceGraph(ws.Connections(), placeholders); err != nil {
			logger.Warn("snapshot: graph refresh failed", slog.String("error", err.Error()))
		}
	}

	record := func(n *model.Note) {
		path := uri.Canonical(n.ID.Path)
		body := ""
		if data, err := store.Read(path); err == nil {
			body = string(data)
		}
		if err := db.UpsertNote(path, n.Title, body); err != nil {
			logger.Warn("snapshot: upsert failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		refresh()
	}

	return []graph.Subscription{
		ws.OnDidAdd(record),
		ws.OnDidUpdate(func(u graph.Update) { record(u.New) }),
		ws.OnDidDelete(func(n *model.Note) {
			path := uri.Canonical(n.ID.Path)
			if err := db.DeleteResource(path); err != nil {
				logger.Warn("snapshot: delete failed", slog.String("path", path), slog.String("error", err.Error()))
			}
			refresh()
		}),
	}
}
