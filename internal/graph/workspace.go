package graph

import (
	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

// Workspace is the aggregate over the resource index, link graph,
// resolver, and synchronizer. All graph state is owned here and mutated
// by a single logical caller at a time; hosts needing multi-threaded
// access must synchronize externally.
type Workspace struct {
	idx      *ResourceIndex
	links    *LinkGraph
	resolver *Resolver
	syncer   *Synchronizer
	disposed bool
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	idx := NewResourceIndex()
	links := NewLinkGraph()
	links.onOrphanPlaceholder = func(id uri.URI) {
		idx.removePlaceholder(id.Path)
	}
	return &Workspace{
		idx:      idx,
		links:    links,
		resolver: NewResolver(idx, links),
	}
}

// Exists reports whether a resource is stored at id.
func (w *Workspace) Exists(id uri.URI) bool { return w.idx.Exists(id) }

// List returns every resource: notes first, then placeholders.
func (w *Workspace) List() []model.Resource { return w.idx.List() }

// Get returns the resource at id or apperr.ErrNotFound.
func (w *Workspace) Get(id uri.URI) (model.Resource, error) { return w.idx.Get(id) }

// Find resolves a raw reference against an optional origin. A nil result
// means no resource matches; that is a normal condition, not an error.
func (w *Workspace) Find(raw string, origin *uri.URI) model.Resource {
	return w.idx.Find(raw, origin)
}

// Set stores a resource and returns the previous one at that id, if any.
func (w *Workspace) Set(r model.Resource) model.Resource { return w.idx.Set(r) }

// Delete removes the resource at id and returns it, if any.
func (w *Workspace) Delete(id uri.URI) model.Resource { return w.idx.Delete(id) }

// ResolveReference resolves a single reference declared by origin without
// touching the graph.
func (w *Workspace) ResolveReference(origin *model.Note, ref model.Reference) uri.URI {
	return w.resolver.ResolveReference(origin, ref)
}

// ResolveAll rebuilds the whole graph from the current resource set.
func (w *Workspace) ResolveAll() { w.resolver.ResolveAll() }

// EnableSync switches the workspace to incremental maintenance:
// subsequent Set/Delete calls apply minimal diff-based graph updates.
// Installing twice is a no-op.
func (w *Workspace) EnableSync() {
	if w.syncer == nil {
		w.syncer = NewSynchronizer(w.idx, w.links, w.resolver)
	}
}

// Connections returns every edge in the graph.
func (w *Workspace) Connections() []model.Connection { return w.links.All() }

// ConnectionsFor returns every edge touching id.
func (w *Workspace) ConnectionsFor(id uri.URI) []model.Connection {
	return w.links.ConnectionsFor(id)
}

// Links returns the edges originating at id.
func (w *Workspace) Links(id uri.URI) []model.Connection { return w.links.OutgoingFor(id) }

// Backlinks returns the edges targeting id.
func (w *Workspace) Backlinks(id uri.URI) []model.Connection { return w.links.IncomingFor(id) }

// OnDidAdd installs a handler fired after a note is added.
func (w *Workspace) OnDidAdd(fn func(*model.Note)) Subscription { return w.idx.OnDidAdd(fn) }

// OnDidUpdate installs a handler fired after a note is replaced.
func (w *Workspace) OnDidUpdate(fn func(Update)) Subscription { return w.idx.OnDidUpdate(fn) }

// OnDidDelete installs a handler fired after a note is removed.
func (w *Workspace) OnDidDelete(fn func(*model.Note)) Subscription { return w.idx.OnDidDelete(fn) }

// Dispose releases the synchronizer's subscriptions. Idempotent.
func (w *Workspace) Dispose() {
	if w.disposed {
		return
	}
	w.disposed = true
	if w.syncer != nil {
		w.syncer.Dispose()
	}
}
