package graph

import (
	"testing"

	"github.com/starford/ansuz/internal/uri"
)

func TestWorkspace_ResolveAllBeforeSync(t *testing.T) {
	ws := NewWorkspace()
	ws.Set(note("a.md", shortRef("b", 0)))
	ws.Set(note("b.md"))

	// Without sync enabled, Set does not touch the graph.
	if len(ws.Connections()) != 0 {
		t.Fatalf("connections before ResolveAll = %v", ws.Connections())
	}
	ws.ResolveAll()
	conns := ws.Connections()
	if len(conns) != 1 || conns[0].Target.Path != "b.md" {
		t.Errorf("connections = %v", conns)
	}
}

func TestWorkspace_EnableSyncIdempotent(t *testing.T) {
	ws := NewWorkspace()
	ws.EnableSync()
	first := ws.syncer
	ws.EnableSync()
	if ws.syncer != first {
		t.Errorf("EnableSync replaced the synchronizer")
	}
}

func TestWorkspace_DisposeDetachesSync(t *testing.T) {
	ws := NewWorkspace()
	ws.EnableSync()
	ws.Dispose()
	ws.Dispose()

	ws.Set(note("a.md", shortRef("b", 0)))
	if len(ws.Connections()) != 0 {
		t.Errorf("disposed workspace still maintained the graph")
	}
}

func TestWorkspace_LinksAndBacklinks(t *testing.T) {
	ws := NewWorkspace()
	ws.EnableSync()
	ws.Set(note("b.md"))
	ws.Set(note("a.md", shortRef("b", 0)))

	if out := ws.Links(uri.ForDocument("a.md")); len(out) != 1 {
		t.Errorf("Links = %v", out)
	}
	if in := ws.Backlinks(uri.ForDocument("b.md")); len(in) != 1 {
		t.Errorf("Backlinks = %v", in)
	}
	if got := ws.ConnectionsFor(uri.ForDocument("b.md")); len(got) != 1 {
		t.Errorf("ConnectionsFor = %v", got)
	}
}
