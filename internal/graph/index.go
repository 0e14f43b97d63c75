// Package graph implements the reference graph over workspace resources:
// the resource index, the bidirectional link graph, reference resolution,
// and the diff-driven incremental synchronizer that keeps the graph
// consistent with a mutable resource set.
package graph

import (
	"fmt"
	"sort"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

// ResourceIndex owns the canonical mapping from identifier to resource,
// plus a secondary basename index for short references. It has no
// knowledge of links.
//
// Notes are keyed by their canonical path (default extension appended when
// absent); placeholders are keyed by whatever string the resolver
// synthesized them from. Only real-note mutation is observable through
// the added/updated/deleted emitters; placeholder churn never emits.
type ResourceIndex struct {
	resources       map[string]*model.Note
	noteOrder       []string
	resourcesByName map[string][]string
	placeholders    map[string]model.Placeholder

	added   emitter[*model.Note]
	updated emitter[Update]
	deleted emitter[*model.Note]
}

// NewResourceIndex creates an empty index.
func NewResourceIndex() *ResourceIndex {
	return &ResourceIndex{
		resources:       make(map[string]*model.Note),
		resourcesByName: make(map[string][]string),
		placeholders:    make(map[string]model.Placeholder),
	}
}

// Exists reports whether a resource is stored at id. Placeholder-scheme
// identifiers consult the placeholder map, everything else the note map.
func (x *ResourceIndex) Exists(id uri.URI) bool {
	if id.IsPlaceholder() {
		_, ok := x.placeholders[id.Path]
		return ok
	}
	_, ok := x.resources[uri.Canonical(id.Path)]
	return ok
}

// List returns every resource: notes first in insertion order, then
// placeholders in sorted key order.
func (x *ResourceIndex) List() []model.Resource {
	out := make([]model.Resource, 0, len(x.noteOrder)+len(x.placeholders))
	for _, key := range x.noteOrder {
		out = append(out, x.resources[key])
	}
	keys := make([]string, 0, len(x.placeholders))
	for k := range x.placeholders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, x.placeholders[k])
	}
	return out
}

// Notes returns the stored notes in insertion order.
func (x *ResourceIndex) Notes() []*model.Note {
	out := make([]*model.Note, 0, len(x.noteOrder))
	for _, key := range x.noteOrder {
		out = append(out, x.resources[key])
	}
	return out
}

// Get returns the resource stored at id, or apperr.ErrNotFound.
func (x *ResourceIndex) Get(id uri.URI) (model.Resource, error) {
	if id.IsPlaceholder() {
		if _, ok := x.placeholders[id.Path]; ok {
			return model.Placeholder{ID: uri.Placeholder(id.Path)}, nil
		}
		return nil, fmt.Errorf("graph: get %s: %w", id, apperr.ErrNotFound)
	}
	if n, ok := x.resources[uri.Canonical(id.Path)]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("graph: get %s: %w", id, apperr.ErrNotFound)
}

// Set stores a resource and returns the previous one at that identifier,
// or nil. Storing a note emits Updated when one already existed at the
// id, Added otherwise. Placeholders go straight into the placeholder map
// and never emit.
func (x *ResourceIndex) Set(r model.Resource) model.Resource {
	switch res := r.(type) {
	case model.Placeholder:
		prev, had := x.placeholders[res.ID.Path]
		x.placeholders[res.ID.Path] = res
		if had {
			return prev
		}
		return nil

	case *model.Note:
		key := uri.Canonical(res.ID.Path)
		prev, had := x.resources[key]
		x.resources[key] = res
		if had {
			x.updated.emit(Update{Old: prev, New: res})
			return prev
		}
		x.noteOrder = append(x.noteOrder, key)
		x.insertName(res.ID.Basename(), key)
		x.added.emit(res)
		return nil
	}
	panic(fmt.Sprintf("graph: set of unknown resource type %T", r))
}

// Delete removes the resource at id and returns it, or nil when nothing
// was stored. Deleted is emitted only when a real note was removed.
//
// Deleting a placeholder here does not touch the link graph: connections
// targeting it survive until their sources are re-resolved or removed.
// Placeholder cleanup normally goes through the connection graph's
// orphan callback, which removes the placeholder once its last incoming
// edge is gone.
func (x *ResourceIndex) Delete(id uri.URI) model.Resource {
	if id.IsPlaceholder() {
		if ph, ok := x.placeholders[id.Path]; ok {
			delete(x.placeholders, id.Path)
			return ph
		}
		return nil
	}
	key := uri.Canonical(id.Path)
	n, ok := x.resources[key]
	if !ok {
		return nil
	}
	delete(x.resources, key)
	for i, k := range x.noteOrder {
		if k == key {
			x.noteOrder = append(x.noteOrder[:i], x.noteOrder[i+1:]...)
			break
		}
	}
	x.removeName(n.ID.Basename(), key)
	x.deleted.emit(n)
	return n
}

// Find resolves a raw reference to the resource it denotes, or nil when
// nothing matches. Absence is not an error; a dangling reference is a
// normal condition.
func (x *ResourceIndex) Find(raw string, origin *uri.URI) model.Resource {
	switch form := Classify(raw); form {
	case FormIdentifier:
		id, ok := uri.Parse(raw)
		if !ok {
			return nil
		}
		if id.IsPlaceholder() {
			if _, ok := x.placeholders[id.Path]; ok {
				return model.Placeholder{ID: uri.Placeholder(id.Path)}
			}
			return nil
		}
		if n, ok := x.resources[id.Path]; ok {
			return n
		}
		return nil

	case FormShortKey:
		ids := x.resourcesByName[uri.Basename(raw)]
		if len(ids) == 0 {
			if _, ok := x.placeholders[raw]; ok {
				return model.Placeholder{ID: uri.Placeholder(raw)}
			}
			return nil
		}
		// The name list is kept sorted, so ids[0] is the
		// lexicographically smallest id regardless of insertion order.
		return x.resources[ids[0]]

	case FormAbsolutePath:
		key := uri.Canonical(raw)
		if n, ok := x.resources[key]; ok {
			return n
		}
		if _, ok := x.placeholders[key]; ok {
			return model.Placeholder{ID: uri.Placeholder(key)}
		}
		return nil

	case FormRelativePath:
		if origin == nil {
			return nil
		}
		target := uri.Resolve(*origin, raw)
		if n, ok := x.resources[target.Path]; ok {
			return n
		}
		// Placeholder fallback is keyed by the raw literal, not the
		// computed identifier.
		if _, ok := x.placeholders[raw]; ok {
			return model.Placeholder{ID: uri.Placeholder(raw)}
		}
		return nil

	default:
		panic(fmt.Sprintf("graph: unreachable reference form %d", form))
	}
}

// OnDidAdd installs a handler for note additions.
func (x *ResourceIndex) OnDidAdd(fn func(*model.Note)) Subscription {
	return x.added.subscribe(fn)
}

// OnDidUpdate installs a handler for note updates.
func (x *ResourceIndex) OnDidUpdate(fn func(Update)) Subscription {
	return x.updated.subscribe(fn)
}

// OnDidDelete installs a handler for note deletions.
func (x *ResourceIndex) OnDidDelete(fn func(*model.Note)) Subscription {
	return x.deleted.subscribe(fn)
}

func (x *ResourceIndex) removePlaceholder(key string) {
	delete(x.placeholders, key)
}

func (x *ResourceIndex) clearPlaceholders() {
	x.placeholders = make(map[string]model.Placeholder)
}

func (x *ResourceIndex) insertName(name, key string) {
	ids := x.resourcesByName[name]
	i := sort.SearchStrings(ids, key)
	if i < len(ids) && ids[i] == key {
		return
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = key
	x.resourcesByName[name] = ids
}

func (x *ResourceIndex) removeName(name, key string) {
	ids := x.resourcesByName[name]
	for i, id := range ids {
		if id == key {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(x.resourcesByName, name)
	} else {
		x.resourcesByName[name] = ids
	}
}
