package graph

import (
	"strings"

	"github.com/starford/ansuz/internal/uri"
)

// RefForm is the closed set of reference forms the resolver understands.
type RefForm int

const (
	// FormIdentifier is a reference that already carries a scheme prefix.
	FormIdentifier RefForm = iota
	// FormShortKey is a bare name with no path separators.
	FormShortKey
	// FormAbsolutePath contains a separator and is rooted at the
	// workspace root.
	FormAbsolutePath
	// FormRelativePath contains a separator and resolves against an
	// origin identifier.
	FormRelativePath
)

// String returns a readable name for the form.
func (f RefForm) String() string {
	switch f {
	case FormIdentifier:
		return "identifier"
	case FormShortKey:
		return "short-key"
	case FormAbsolutePath:
		return "absolute-path"
	case FormRelativePath:
		return "relative-path"
	}
	return "unknown"
}

// Classify determines the form of a raw reference from its literal shape
// alone. It performs no lookups.
func Classify(raw string) RefForm {
	switch {
	case uri.HasScheme(raw):
		return FormIdentifier
	case !strings.Contains(raw, "/"):
		return FormShortKey
	case strings.HasPrefix(raw, "/"):
		return FormAbsolutePath
	default:
		return FormRelativePath
	}
}
