// Package model defines the domain types for Ansuz: resources, references,
// and resolved connections.
package model

import "github.com/starford/ansuz/internal/uri"

// Resource is the closed sum of workspace inhabitants: a real Note or a
// synthetic Placeholder standing in for an unresolved reference target.
// Consumers must match exhaustively; any other implementation is a
// programming error.
type Resource interface {
	Identifier() uri.URI
	isResource()
}

// Note is a parsed document: its identifier, its declared outgoing
// references in document order, and its named definitions.
type Note struct {
	ID          uri.URI
	Title       string
	Links       []Reference
	Definitions []Definition
}

// Identifier returns the note's identifier.
func (n *Note) Identifier() uri.URI { return n.ID }

func (*Note) isResource() {}

// Definition looks up a named definition by label.
func (n *Note) Definition(label string) (Definition, bool) {
	for _, d := range n.Definitions {
		if d.Label == label {
			return d, true
		}
	}
	return Definition{}, false
}

// Placeholder is a resource with no content behind it. Placeholders exist
// only while at least one connection targets them.
type Placeholder struct {
	ID uri.URI
}

// Identifier returns the placeholder's identifier.
func (p Placeholder) Identifier() uri.URI { return p.ID }

func (Placeholder) isResource() {}

// Definition maps a short label to a target string, in the style of
// Markdown link reference definitions.
type Definition struct {
	Label  string
	Target string
}
