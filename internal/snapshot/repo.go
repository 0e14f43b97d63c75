package snapshot

import (
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/model"
)

// Resource kinds stored in the projection.
const (
	KindNote        = "note"
	KindPlaceholder = "placeholder"
)

// SearchResult is one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertNote inserts or replaces a note row.
func (db *DB) UpsertNote(path, title, body string) error {
	_, err := db.conn.Exec(`
		INSERT INTO resources (path, kind, title, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind       = excluded.kind,
			title      = excluded.title,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, path, KindNote, title, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("snapshot: upsert note: %w", err)
	}
	return nil
}

// DeleteResource removes a resource row.
func (db *DB) DeleteResource(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM resources WHERE path = ?`, path); err != nil {
		return fmt.Errorf("snapshot: delete resource: %w", err)
	}
	return nil
}

// ReplaceGraph rewrites the connections table and the placeholder rows to
// mirror the given state, within one transaction.
func (db *DB) ReplaceGraph(conns []model.Connection, placeholders []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM connections`); err != nil {
		return fmt.Errorf("snapshot: clear connections: %w", err)
	}
	if len(conns) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO connections (source, target, kind, line, col) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("snapshot: prepare connection insert: %w", err)
		}
		defer stmt.Close()
		for _, c := range conns {
			if _, err := stmt.Exec(c.Source.String(), c.Target.String(), c.Ref.Kind.String(),
				c.Ref.Range.Start.Line, c.Ref.Range.Start.Column); err != nil {
				return fmt.Errorf("snapshot: insert connection: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM resources WHERE kind = ?`, KindPlaceholder); err != nil {
		return fmt.Errorf("snapshot: clear placeholders: %w", err)
	}
	for _, key := range placeholders {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO resources (path, kind, updated_at) VALUES (?, ?, ?)`,
			"placeholder:"+key, KindPlaceholder, time.Now().UTC()); err != nil {
			return fmt.Errorf("snapshot: insert placeholder: %w", err)
		}
	}

	return tx.Commit()
}

// Search performs a LIKE-based substring search over note titles and
// bodies.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, title, substr(body, 1, 200)
		FROM resources
		WHERE kind = ? AND (title LIKE ? OR body LIKE ?)
		ORDER BY path
		LIMIT ?
	`, KindNote, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ConnectionCount returns the number of mirrored connections.
func (db *DB) ConnectionCount() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM connections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot: connection count: %w", err)
	}
	return n, nil
}
