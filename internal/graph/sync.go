package graph

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

// Synchronizer listens to resource index mutations and applies the
// minimal graph update instead of a full rebuild. It owns the placeholder
// promotion and garbage-collection policy.
//
// Handlers run synchronously inside the mutating Set/Delete call, so a
// promotion cascade completes before the original call returns. Each
// cascade step consumes a placeholder or re-resolves a finite note set,
// so re-entrant delivery always terminates.
type Synchronizer struct {
	idx      *ResourceIndex
	links    *LinkGraph
	resolver *Resolver
	subs     []Subscription
}

// NewSynchronizer installs the incremental handlers on the index. Call
// Dispose to detach them.
func NewSynchronizer(idx *ResourceIndex, links *LinkGraph, resolver *Resolver) *Synchronizer {
	s := &Synchronizer{idx: idx, links: links, resolver: resolver}
	s.subs = []Subscription{
		idx.OnDidAdd(s.onAdded),
		idx.OnDidUpdate(s.onUpdated),
		idx.OnDidDelete(s.onDeleted),
	}
	return s
}

// Dispose detaches the synchronizer from the index. Idempotent.
func (s *Synchronizer) Dispose() {
	for _, sub := range s.subs {
		sub.Dispose()
	}
	s.subs = nil
}

// onAdded promotes any placeholder the new note satisfies, re-resolving
// the sources that pointed at it, then resolves the note's own edges.
func (s *Synchronizer) onAdded(n *model.Note) {
	for _, key := range promotionKeys(n.ID) {
		if _, ok := s.idx.placeholders[key]; !ok {
			continue
		}
		ph := uri.Placeholder(key)
		sources := s.links.IncomingFor(ph)
		s.idx.removePlaceholder(key)
		for _, src := range distinctSources(sources) {
			if origin, ok := s.idx.resources[graphKey(src)]; ok {
				s.resolver.ResolveNote(origin)
			}
		}
	}
	s.resolver.ResolveNote(n)
}

// onUpdated applies a structural diff between the old and new reference
// lists. Removed references are resolved against the old note and
// disconnected; added ones are resolved against the new note and
// connected. References the diff keeps are left untouched: their
// previously resolved target is not re-evaluated here, only transitively
// through add/delete handling.
func (s *Synchronizer) onUpdated(u Update) {
	if u.Old.ID != u.New.ID {
		panic(fmt.Sprintf("graph: update changed identifier %s -> %s", u.Old.ID, u.New.ID))
	}
	removed, added := diffLists(u.Old.Links, u.New.Links, model.Reference.SameIdentity)
	for _, ref := range removed {
		target := s.resolver.ResolveReference(u.Old, ref)
		s.links.Disconnect(u.Old.ID, target, &ref)
	}
	for _, ref := range added {
		s.resolver.connect(u.New, ref)
	}
}

// onDeleted drops the note's outgoing edges, removes its incoming edges,
// and re-resolves each former source, which will now land on a
// placeholder or elsewhere.
func (s *Synchronizer) onDeleted(n *model.Note) {
	for _, c := range s.links.OutgoingFor(n.ID) {
		s.links.Disconnect(c.Source, c.Target, &c.Ref)
	}
	incoming := s.links.IncomingFor(n.ID)
	for _, c := range incoming {
		s.links.Disconnect(c.Source, c.Target, &c.Ref)
	}
	for _, src := range distinctSources(incoming) {
		if origin, ok := s.idx.resources[graphKey(src)]; ok {
			s.resolver.ResolveNote(origin)
		}
	}
}

// promotionKeys lists the placeholder keys a newly added note can
// satisfy: its canonical path, its path without extension, and its
// basename. Matching generously is safe because promotion re-resolves the
// affected sources from scratch.
func promotionKeys(id uri.URI) []string {
	canonical := uri.Canonical(id.Path)
	bare := strings.TrimSuffix(canonical, path.Ext(canonical))
	keys := []string{canonical}
	if bare != canonical {
		keys = append(keys, bare)
	}
	if name := id.Basename(); name != canonical && name != bare {
		keys = append(keys, name)
	}
	return keys
}

func distinctSources(conns []model.Connection) []uri.URI {
	seen := make(map[string]struct{}, len(conns))
	var out []uri.URI
	for _, c := range conns {
		if _, ok := seen[graphKey(c.Source)]; ok {
			continue
		}
		seen[graphKey(c.Source)] = struct{}{}
		out = append(out, c.Source)
	}
	return out
}
