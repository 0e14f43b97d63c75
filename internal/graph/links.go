package graph

import (
	"sort"

	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

// LinkGraph owns the two symmetric adjacency maps over resolved
// connections. Connect and Disconnect are the only mutation paths, so the
// symmetry and pruning invariants are enforced at a single choke point.
type LinkGraph struct {
	outgoing map[string][]model.Connection
	incoming map[string][]model.Connection

	// onOrphanPlaceholder fires when a placeholder target loses its last
	// incoming connection, so the owning index can drop it in the same
	// mutation.
	onOrphanPlaceholder func(uri.URI)
}

// NewLinkGraph creates an empty link graph.
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{
		outgoing: make(map[string][]model.Connection),
		incoming: make(map[string][]model.Connection),
	}
}

func graphKey(id uri.URI) string { return id.Path }

// Connect records one connection in both adjacency maps.
func (g *LinkGraph) Connect(c model.Connection) {
	g.outgoing[graphKey(c.Source)] = append(g.outgoing[graphKey(c.Source)], c)
	g.incoming[graphKey(c.Target)] = append(g.incoming[graphKey(c.Target)], c)
}

// Disconnect removes connections between source and target from both
// maps: those matching ref, or every one when ref is nil (wildcard).
// Entries whose lists become empty are pruned, and a placeholder target
// left with no incoming connections is removed from its index.
func (g *LinkGraph) Disconnect(source, target uri.URI, ref *model.Reference) {
	match := func(c model.Connection) bool {
		if c.Source != source || c.Target != target {
			return false
		}
		return ref == nil || c.Ref.SameIdentity(*ref)
	}

	sk, tk := graphKey(source), graphKey(target)
	g.outgoing[sk] = reject(g.outgoing[sk], match)
	if len(g.outgoing[sk]) == 0 {
		delete(g.outgoing, sk)
	}
	remaining := reject(g.incoming[tk], match)
	if len(remaining) == 0 {
		delete(g.incoming, tk)
	} else {
		g.incoming[tk] = remaining
	}
	if target.IsPlaceholder() && g.onOrphanPlaceholder != nil {
		for _, c := range remaining {
			if c.Target == target {
				return
			}
		}
		g.onOrphanPlaceholder(target)
	}
}

// All returns every connection, ordered by source key for determinism.
func (g *LinkGraph) All() []model.Connection {
	keys := make([]string, 0, len(g.outgoing))
	for k := range g.outgoing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []model.Connection
	for _, k := range keys {
		out = append(out, g.outgoing[k]...)
	}
	return out
}

// ConnectionsFor returns every connection touching id, outgoing first.
// Unknown ids yield an empty slice, never an error.
func (g *LinkGraph) ConnectionsFor(id uri.URI) []model.Connection {
	k := graphKey(id)
	out := make([]model.Connection, 0, len(g.outgoing[k])+len(g.incoming[k]))
	out = append(out, g.outgoing[k]...)
	out = append(out, g.incoming[k]...)
	return out
}

// OutgoingFor returns a copy of the connections originating at id.
func (g *LinkGraph) OutgoingFor(id uri.URI) []model.Connection {
	return append([]model.Connection(nil), g.outgoing[graphKey(id)]...)
}

// IncomingFor returns a copy of the connections targeting id.
func (g *LinkGraph) IncomingFor(id uri.URI) []model.Connection {
	return append([]model.Connection(nil), g.incoming[graphKey(id)]...)
}

func (g *LinkGraph) clear() {
	g.outgoing = make(map[string][]model.Connection)
	g.incoming = make(map[string][]model.Connection)
}

func reject(list []model.Connection, match func(model.Connection) bool) []model.Connection {
	out := list[:0]
	for _, c := range list {
		if !match(c) {
			out = append(out, c)
		}
	}
	return out
}
