// Package snapshot maintains a SQLite projection of the workspace graph.
// The in-memory graph stays the source of truth; the snapshot is an
// external mirror fed by workspace notifications, used for search and for
// surviving inspection outside the process.
package snapshot

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS resources (
	path       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL DEFAULT 'note',
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS connections (
	source   TEXT NOT NULL,
	target   TEXT NOT NULL,
	kind     TEXT NOT NULL,
	line     INTEGER NOT NULL DEFAULT 0,
	col      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_connections_source ON connections(source);
CREATE INDEX IF NOT EXISTS idx_connections_target ON connections(target);
`

// DB wraps a sql.DB with snapshot-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
