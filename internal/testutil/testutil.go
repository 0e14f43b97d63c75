// Package testutil provides shared test helpers for setting up workspaces
// and snapshot databases.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/snapshot"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/vault"
)

// TestDB creates a temporary snapshot database that is automatically
// cleaned up.
func TestDB(t *testing.T) *snapshot.DB {
	t.Helper()
	db, err := snapshot.Open(filepath.Join(t.TempDir(), "ansuz-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary workspace directory with a storage
// provider rooted there.
func TestStore(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Stack is a fully wired service stack over temporary storage.
type Stack struct {
	Store   *storage.FS
	DB      *snapshot.DB
	WS      *graph.Workspace
	Syncer  *vault.Syncer
	Service *noteservice.Service
}

// TestStack wires storage, workspace, snapshot, and service the way the
// application does, with incremental sync enabled.
func TestStack(t *testing.T) *Stack {
	t.Helper()

	store := TestStore(t)
	db := TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ws := graph.NewWorkspace()
	ws.EnableSync()
	var mu sync.RWMutex
	syncer := vault.NewSyncer(ws, store, &mu, logger)
	subs := snapshot.Attach(db, ws, store, logger)
	t.Cleanup(func() {
		for _, s := range subs {
			s.Dispose()
		}
	})

	return &Stack{
		Store:   store,
		DB:      db,
		WS:      ws,
		Syncer:  syncer,
		Service: noteservice.New(store, ws, syncer, db, &mu),
	}
}
