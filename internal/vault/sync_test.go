package vault

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/uri"
)

func newTestSyncer(t *testing.T) (*Syncer, *graph.Workspace, *storage.FS) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ws := graph.NewWorkspace()
	ws.EnableSync()
	var mu sync.RWMutex
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSyncer(ws, store, &mu, logger), ws, store
}

func TestSync_IndexesWorkspace(t *testing.T) {
	s, ws, store := newTestSyncer(t)
	_ = store.Write("a.md", []byte("# A\n[[b]]"))
	_ = store.Write("sub/b.md", []byte("# B"))

	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if !ws.Exists(uri.ForDocument("a.md")) || !ws.Exists(uri.ForDocument("sub/b.md")) {
		t.Fatalf("notes not indexed")
	}
	out := ws.Links(uri.ForDocument("a.md"))
	if len(out) != 1 || out[0].Target.Path != "sub/b.md" {
		t.Errorf("links = %v", out)
	}
}

func TestSync_SkipsUnchangedFiles(t *testing.T) {
	s, ws, store := newTestSyncer(t)
	_ = store.Write("a.md", []byte("# A"))
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	updates := 0
	ws.OnDidUpdate(func(graph.Update) { updates++ })

	if err := s.Sync(); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if updates != 0 {
		t.Errorf("unchanged file was re-indexed %d times", updates)
	}
}

func TestSync_RemovesStaleFiles(t *testing.T) {
	s, ws, store := newTestSyncer(t)
	_ = store.Write("gone.md", []byte("# Gone"))
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	_ = store.Delete("gone.md")
	if err := s.Sync(); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if ws.Exists(uri.ForDocument("gone.md")) {
		t.Errorf("deleted file still indexed")
	}
}

func TestIndexFile_ReindexAppliesDiff(t *testing.T) {
	s, ws, _ := newTestSyncer(t)
	if err := s.IndexFile("a.md", []byte("[[First]]")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if err := s.IndexFile("a.md", []byte("[[Second]]")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	if ws.Exists(uri.Placeholder("First")) {
		t.Errorf("stale placeholder survived re-index")
	}
	if !ws.Exists(uri.Placeholder("Second")) {
		t.Errorf("new placeholder missing")
	}
}

func TestSyncer_ConcurrentIndexAndRemove(t *testing.T) {
	s, ws, _ := newTestSyncer(t)
	if err := s.IndexFile("old.md", []byte("# Old")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := s.IndexFile("a.md", []byte("# A")); err != nil {
				t.Errorf("IndexFile a.md: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := s.IndexFile("b.md", []byte("# B")); err != nil {
				t.Errorf("IndexFile b.md: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		s.RemoveFile("old.md")
	}()
	wg.Wait()

	if !ws.Exists(uri.ForDocument("a.md")) || !ws.Exists(uri.ForDocument("b.md")) {
		t.Errorf("concurrently indexed notes missing")
	}
	if ws.Exists(uri.ForDocument("old.md")) {
		t.Errorf("removed note survived")
	}
}

func TestRemoveFile(t *testing.T) {
	s, ws, _ := newTestSyncer(t)
	if err := s.IndexFile("a.md", []byte("# A")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	s.RemoveFile("a.md")
	if ws.Exists(uri.ForDocument("a.md")) {
		t.Errorf("note survived RemoveFile")
	}
	if _, err := ws.Get(uri.ForDocument("a.md")); err == nil {
		t.Errorf("Get should fail after removal")
	}
}
