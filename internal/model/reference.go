package model

import "github.com/starford/ansuz/internal/uri"

// RefKind distinguishes the two declared reference forms.
type RefKind int

const (
	// RefShort is a label/slug reference resolved against definitions or
	// by name ([[wikilink]] style).
	RefShort RefKind = iota
	// RefDirect is a literal path or identifier target ([text](target)
	// style).
	RefDirect
)

// String returns the wire name of the kind.
func (k RefKind) String() string {
	switch k {
	case RefShort:
		return "short"
	case RefDirect:
		return "direct"
	}
	return "unknown"
}

// Position is a zero-based line/column location in a document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is the half-open source span of a reference literal.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Reference is a declared outgoing pointer from a note. Value holds the
// label for short references and the literal target for direct ones. The
// range is used only for structural identity during diffing, never for
// resolution.
type Reference struct {
	Kind  RefKind `json:"kind"`
	Value string  `json:"value"`
	Range Range   `json:"range"`
}

// SameIdentity reports whether two references are the same declaration:
// same kind at the same source position.
func (r Reference) SameIdentity(o Reference) bool {
	return r.Kind == o.Kind && r.Range == o.Range
}

// Connection is a fully resolved edge from a source document to a target
// resource. Connections are immutable once created.
type Connection struct {
	Source uri.URI   `json:"source"`
	Target uri.URI   `json:"target"`
	Ref    Reference `json:"ref"`
}

// Equal reports connection identity: the (source, target, reference)
// triple, with reference identity by kind and position.
func (c Connection) Equal(o Connection) bool {
	return c.Source == o.Source && c.Target == o.Target && c.Ref.SameIdentity(o.Ref)
}
