package graph

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

func newSyncedWorkspace() *Workspace {
	ws := NewWorkspace()
	ws.EnableSync()
	return ws
}

func TestSync_AddResolvesReferences(t *testing.T) {
	ws := newSyncedWorkspace()
	target := note("topic.md")
	ws.Set(target)
	ws.Set(note("origin.md", shortRef("topic", 0)))

	in := ws.Backlinks(target.ID)
	if len(in) != 1 || in[0].Source.Path != "origin.md" {
		t.Errorf("backlinks = %v", in)
	}
}

func TestSync_AddCreatesPlaceholder(t *testing.T) {
	ws := newSyncedWorkspace()
	ws.Set(note("origin.md", shortRef("ghost", 0)))

	if !ws.Exists(uri.Placeholder("ghost")) {
		t.Fatalf("placeholder not created")
	}
	in := ws.Backlinks(uri.Placeholder("ghost"))
	if len(in) != 1 {
		t.Errorf("backlinks = %v", in)
	}
}

func TestSync_PromotionByName(t *testing.T) {
	ws := newSyncedWorkspace()
	ws.Set(note("origin.md", shortRef("topic", 0)))
	if !ws.Exists(uri.Placeholder("topic")) {
		t.Fatalf("placeholder missing before promotion")
	}

	target := note("deep/topic.md")
	ws.Set(target)

	if ws.Exists(uri.Placeholder("topic")) {
		t.Errorf("placeholder survived promotion")
	}
	in := ws.Backlinks(target.ID)
	if len(in) != 1 || in[0].Source.Path != "origin.md" {
		t.Errorf("backlinks after promotion = %v", in)
	}
}

func TestSync_PromotionByPath(t *testing.T) {
	ws := newSyncedWorkspace()
	ws.Set(note("origin.md", directRef("/deep/topic.md", 0)))
	if !ws.Exists(uri.Placeholder("deep/topic.md")) {
		t.Fatalf("placeholder missing before promotion")
	}

	target := note("deep/topic.md")
	ws.Set(target)

	if ws.Exists(uri.Placeholder("deep/topic.md")) {
		t.Errorf("placeholder survived promotion")
	}
	if in := ws.Backlinks(target.ID); len(in) != 1 {
		t.Errorf("backlinks after promotion = %v", in)
	}
}

func TestSync_DeleteDemotesToPlaceholder(t *testing.T) {
	ws := newSyncedWorkspace()
	target := note("topic.md")
	ws.Set(target)
	ws.Set(note("origin.md", shortRef("topic", 0)))

	ws.Delete(target.ID)

	if !ws.Exists(uri.Placeholder("topic")) {
		t.Fatalf("deletion did not demote the target to a placeholder")
	}
	in := ws.Backlinks(uri.Placeholder("topic"))
	if len(in) != 1 || in[0].Source.Path != "origin.md" {
		t.Errorf("backlinks after demotion = %v", in)
	}
	if len(ws.Backlinks(target.ID)) != 0 {
		t.Errorf("stale backlinks on the deleted identifier")
	}
}

func TestSync_DeleteUnreferencedLeavesNoTrace(t *testing.T) {
	ws := newSyncedWorkspace()
	n := note("lonely.md", shortRef("ghost", 0))
	ws.Set(n)
	ws.Delete(n.ID)

	if len(ws.Connections()) != 0 {
		t.Errorf("connections = %v, want none", ws.Connections())
	}
	if ws.Exists(uri.Placeholder("ghost")) {
		t.Errorf("placeholder outlived its only referrer")
	}
}

func TestSync_UpdateAppliesDiff(t *testing.T) {
	ws := newSyncedWorkspace()
	keep := shortRef("kept", 0)
	ws.Set(note("a.md", keep, shortRef("dropped", 1)))

	ws.Set(note("a.md", keep, shortRef("gained", 2)))

	if ws.Exists(uri.Placeholder("dropped")) {
		t.Errorf("removed reference's placeholder survived")
	}
	if !ws.Exists(uri.Placeholder("kept")) || !ws.Exists(uri.Placeholder("gained")) {
		t.Errorf("expected kept and gained placeholders")
	}
	out := ws.Links(uri.ForDocument("a.md"))
	if len(out) != 2 {
		t.Errorf("outgoing = %v", out)
	}
}

func TestSync_UpdateKeepsUnchangedEdges(t *testing.T) {
	ws := newSyncedWorkspace()
	keep := shortRef("topic", 0)
	ws.Set(note("b/topic.md"))
	ws.Set(note("a.md", keep))

	before := ws.Links(uri.ForDocument("a.md"))

	// Replacing the note with an identical reference list must not touch
	// the resolved edges.
	ws.Set(note("a.md", keep))
	after := ws.Links(uri.ForDocument("a.md"))
	if len(before) != 1 || len(after) != 1 || !before[0].Equal(after[0]) {
		t.Errorf("before = %v, after = %v", before, after)
	}
}

func TestSync_UpdateChangedIdentifierPanics(t *testing.T) {
	idx := NewResourceIndex()
	links := NewLinkGraph()
	NewSynchronizer(idx, links, NewResolver(idx, links))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		if !strings.Contains(r.(string), "update changed identifier") {
			t.Errorf("panic = %v", r)
		}
	}()
	idx.updated.emit(Update{Old: note("a.md"), New: note("b.md")})
}

func TestSync_PromotionCascadeCompletesSynchronously(t *testing.T) {
	ws := newSyncedWorkspace()
	ws.Set(note("x.md", shortRef("y", 0)))
	ws.Set(note("z.md", shortRef("y", 0)))

	target := note("y.md", shortRef("x", 0))
	ws.Set(target)

	// By the time Set returns, both former placeholder referrers point at
	// the real note and the new note's own edges exist.
	in := ws.Backlinks(target.ID)
	if len(in) != 2 {
		t.Fatalf("backlinks = %v, want 2", in)
	}
	out := ws.Links(target.ID)
	if len(out) != 1 || out[0].Target.Path != "x.md" {
		t.Errorf("outgoing = %v", out)
	}
}

// renderConnections produces an order-insensitive fingerprint of the graph.
func renderConnections(conns []model.Connection) map[string]int {
	out := make(map[string]int, len(conns))
	for _, c := range conns {
		key := c.Source.String() + "|" + c.Target.String() + "|" + c.Ref.Kind.String()
		out[key]++
	}
	return out
}

func renderPlaceholders(ws *Workspace) map[string]bool {
	out := make(map[string]bool)
	for _, r := range ws.List() {
		if _, ok := r.(model.Placeholder); ok {
			out[r.Identifier().Path] = true
		}
	}
	return out
}

func TestSync_IncrementalMatchesFullRebuild(t *testing.T) {
	type op struct {
		set *model.Note
		del string
	}
	script := []op{
		{set: note("a.md", shortRef("b", 0), directRef("/c/d.md", 1))},
		{set: note("b.md", shortRef("ghost", 0))},
		{set: note("c/d.md", directRef("../a.md", 0))},
		{set: note("a.md", shortRef("b", 0), shortRef("ghost", 2))},
		{del: "c/d.md"},
		{set: note("ghost.md")},
		{set: note("e/b.md")},
		{del: "b.md"},
	}

	live := newSyncedWorkspace()
	for _, o := range script {
		if o.set != nil {
			live.Set(o.set)
		} else {
			live.Delete(uri.ForDocument(o.del))
		}
	}

	rebuilt := NewWorkspace()
	for _, n := range live.idx.Notes() {
		rebuilt.Set(note(n.ID.Path, n.Links...))
	}
	rebuilt.ResolveAll()

	gotConns := renderConnections(live.Connections())
	wantConns := renderConnections(rebuilt.Connections())
	if len(gotConns) != len(wantConns) {
		t.Fatalf("connection sets differ: %v vs %v", gotConns, wantConns)
	}
	for k, n := range wantConns {
		if gotConns[k] != n {
			t.Errorf("connection %q: got %d, want %d", k, gotConns[k], n)
		}
	}

	gotPh := renderPlaceholders(live)
	wantPh := renderPlaceholders(rebuilt)
	if len(gotPh) != len(wantPh) {
		t.Fatalf("placeholder sets differ: %v vs %v", gotPh, wantPh)
	}
	for k := range wantPh {
		if !gotPh[k] {
			t.Errorf("placeholder %q missing from incremental graph", k)
		}
	}
}
