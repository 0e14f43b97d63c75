package graph

import (
	"testing"

	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

func newResolverFixture() (*ResourceIndex, *LinkGraph, *Resolver) {
	idx := NewResourceIndex()
	links := NewLinkGraph()
	links.onOrphanPlaceholder = func(id uri.URI) { idx.removePlaceholder(id.Path) }
	return idx, links, NewResolver(idx, links)
}

func TestResolveReference_ShortViaDefinition(t *testing.T) {
	idx, _, r := newResolverFixture()
	target := note("notes/target.md")
	idx.Set(target)

	origin := note("origin.md", shortRef("alias", 0))
	origin.Definitions = []model.Definition{{Label: "alias", Target: "/notes/target.md"}}
	idx.Set(origin)

	got := r.ResolveReference(origin, origin.Links[0])
	if got != target.ID {
		t.Errorf("got %v, want %v", got, target.ID)
	}
}

func TestResolveReference_ShortViaDefinitionMiss(t *testing.T) {
	idx, _, r := newResolverFixture()
	origin := note("dir/origin.md", shortRef("alias", 0))
	origin.Definitions = []model.Definition{{Label: "alias", Target: "gone.md"}}
	idx.Set(origin)

	got := r.ResolveReference(origin, origin.Links[0])
	// A defined label that misses falls back to the path the definition
	// target computes to, not the label.
	want := uri.Placeholder("dir/gone.md")
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveReference_ShortByName(t *testing.T) {
	idx, _, r := newResolverFixture()
	target := note("deep/topic.md")
	idx.Set(target)
	origin := note("origin.md", shortRef("topic", 0))
	idx.Set(origin)

	if got := r.ResolveReference(origin, origin.Links[0]); got != target.ID {
		t.Errorf("got %v, want %v", got, target.ID)
	}
}

func TestResolveReference_ShortMissKeyedByLabel(t *testing.T) {
	idx, _, r := newResolverFixture()
	origin := note("origin.md", shortRef("Unwritten Idea", 0))
	idx.Set(origin)

	got := r.ResolveReference(origin, origin.Links[0])
	if got != uri.Placeholder("Unwritten Idea") {
		t.Errorf("got %v", got)
	}
}

func TestResolveReference_DirectPath(t *testing.T) {
	idx, _, r := newResolverFixture()
	target := note("notes/target.md")
	idx.Set(target)
	origin := note("notes/origin.md", directRef("./target.md", 0))
	idx.Set(origin)

	if got := r.ResolveReference(origin, origin.Links[0]); got != target.ID {
		t.Errorf("got %v, want %v", got, target.ID)
	}
}

func TestResolveReference_DirectMissKeyedByComputedPath(t *testing.T) {
	idx, _, r := newResolverFixture()
	origin := note("notes/origin.md", directRef("../gone.md", 0))
	idx.Set(origin)

	got := r.ResolveReference(origin, origin.Links[0])
	if got != uri.Placeholder("gone.md") {
		t.Errorf("got %v", got)
	}
}

func TestResolveNote_InstallsPlaceholderWithEdge(t *testing.T) {
	idx, links, r := newResolverFixture()
	origin := note("origin.md", shortRef("missing", 0))
	idx.Set(origin)

	r.ResolveNote(origin)

	ph := uri.Placeholder("missing")
	if !idx.Exists(ph) {
		t.Fatalf("placeholder not installed")
	}
	in := links.IncomingFor(ph)
	if len(in) != 1 || in[0].Source != origin.ID {
		t.Errorf("incoming = %v", in)
	}
}

func TestResolveNote_DropsStaleEdges(t *testing.T) {
	idx, links, r := newResolverFixture()
	origin := note("origin.md", shortRef("first", 0))
	idx.Set(origin)
	r.ResolveNote(origin)

	origin.Links = []model.Reference{shortRef("second", 0)}
	r.ResolveNote(origin)

	if idx.Exists(uri.Placeholder("first")) {
		t.Errorf("orphaned placeholder survived re-resolution")
	}
	out := links.OutgoingFor(origin.ID)
	if len(out) != 1 || out[0].Target != uri.Placeholder("second") {
		t.Errorf("outgoing = %v", out)
	}
}

func TestResolveAll_RebuildsFromScratch(t *testing.T) {
	idx, links, r := newResolverFixture()
	a := note("a.md", shortRef("b", 0), shortRef("ghost", 1))
	b := note("b.md", directRef("/a.md", 0))
	idx.Set(a)
	idx.Set(b)

	// Seed stale state that a rebuild must discard.
	idx.Set(model.Placeholder{ID: uri.Placeholder("stale")})
	links.Connect(conn(a.ID, uri.Placeholder("stale"), shortRef("stale", 9)))

	r.ResolveAll()

	if idx.Exists(uri.Placeholder("stale")) {
		t.Errorf("stale placeholder survived rebuild")
	}
	if !idx.Exists(uri.Placeholder("ghost")) {
		t.Errorf("live placeholder missing after rebuild")
	}
	if got := links.OutgoingFor(a.ID); len(got) != 2 {
		t.Errorf("a outgoing = %v", got)
	}
	in := links.IncomingFor(a.ID)
	if len(in) != 1 || in[0].Source != b.ID {
		t.Errorf("a incoming = %v", in)
	}
}
