package graph

import (
	"fmt"

	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

// Resolver turns a note's declared references into concrete graph edges,
// creating placeholders for anything unresolved.
type Resolver struct {
	idx   *ResourceIndex
	links *LinkGraph
}

// NewResolver creates a resolver over the given index and link graph.
func NewResolver(idx *ResourceIndex, links *LinkGraph) *Resolver {
	return &Resolver{idx: idx, links: links}
}

// ResolveReference computes the target identifier of one reference
// declared by origin. Resolution is pure: a miss yields a placeholder
// identifier without installing anything.
func (r *Resolver) ResolveReference(origin *model.Note, ref model.Reference) uri.URI {
	switch ref.Kind {
	case model.RefShort:
		if def, ok := origin.Definition(ref.Value); ok {
			if res := r.idx.Find(def.Target, &origin.ID); res != nil {
				return res.Identifier()
			}
			return uri.Placeholder(computedPath(origin.ID, def.Target))
		}
		if res := r.idx.Find(ref.Value, &origin.ID); res != nil {
			return res.Identifier()
		}
		// No definition and no named resource: the placeholder is keyed
		// by the label itself.
		return uri.Placeholder(ref.Value)

	case model.RefDirect:
		if res := r.idx.Find(ref.Value, &origin.ID); res != nil {
			return res.Identifier()
		}
		return uri.Placeholder(computedPath(origin.ID, ref.Value))

	default:
		panic(fmt.Sprintf("graph: unknown reference kind %v", ref.Kind))
	}
}

// connect resolves one reference and records the edge. A placeholder
// target is installed in the index before the connection is created, so
// the placeholder entry and its incoming edge appear together.
func (r *Resolver) connect(origin *model.Note, ref model.Reference) {
	target := r.ResolveReference(origin, ref)
	if target.IsPlaceholder() {
		r.idx.Set(model.Placeholder{ID: target})
	}
	r.links.Connect(model.Connection{Source: origin.ID, Target: target, Ref: ref})
}

// ResolveNote rebuilds the edges of a single note: its existing outgoing
// connections are dropped (pruning any placeholder they orphan), then
// every declared reference is resolved and connected in order.
func (r *Resolver) ResolveNote(n *model.Note) {
	for _, c := range r.links.OutgoingFor(n.ID) {
		r.links.Disconnect(c.Source, c.Target, &c.Ref)
	}
	for _, ref := range n.Links {
		r.connect(n, ref)
	}
}

// ResolveAll rebuilds the whole graph from scratch: both adjacency maps
// and the placeholder set are cleared, then every note is resolved in
// list order. This is the correctness baseline the incremental path must
// match.
func (r *Resolver) ResolveAll() {
	r.links.clear()
	r.idx.clearPlaceholders()
	for _, n := range r.idx.Notes() {
		r.ResolveNote(n)
	}
}

// computedPath derives the placeholder key for a missed path-like
// reference: the path the reference would have denoted.
func computedPath(origin uri.URI, raw string) string {
	switch form := Classify(raw); form {
	case FormIdentifier:
		if id, ok := uri.Parse(raw); ok {
			return id.Path
		}
		return raw
	case FormShortKey, FormAbsolutePath, FormRelativePath:
		return uri.Resolve(origin, raw).Path
	default:
		panic(fmt.Sprintf("graph: unreachable reference form %d", form))
	}
}
