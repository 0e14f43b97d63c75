// Package uri defines the identifier type used to address workspace
// resources. Identifiers are workspace-relative paths carrying a scheme
// and an optional fragment; equality is structural.
package uri

import (
	"encoding/json"
	"path"
	"regexp"
	"strings"
)

// Schemes used by the workspace.
const (
	// SchemeFile addresses a real document inside the workspace.
	SchemeFile = "file"
	// SchemePlaceholder marks an identifier that is not backed by real
	// content. Placeholder identifiers are keyed by whatever string the
	// resolver synthesized them from.
	SchemePlaceholder = "placeholder"
)

// DefaultExtension is appended to document paths that carry no extension.
const DefaultExtension = ".md"

// URI is an opaque, comparable resource identifier.
type URI struct {
	Scheme   string
	Path     string
	Fragment string
}

var schemeRe = regexp.MustCompile(`^[a-z][a-z0-9+.-]*:`)

// HasScheme reports whether raw carries an explicit scheme prefix.
func HasScheme(raw string) bool {
	return schemeRe.MatchString(raw)
}

// Parse interprets raw as a full identifier. It returns ok=false when raw
// has no scheme prefix.
func Parse(raw string) (URI, bool) {
	if !HasScheme(raw) {
		return URI{}, false
	}
	i := strings.Index(raw, ":")
	scheme, rest := raw[:i], raw[i+1:]
	rest = strings.TrimPrefix(rest, "//")
	var fragment string
	if j := strings.Index(rest, "#"); j >= 0 {
		rest, fragment = rest[:j], rest[j+1:]
	}
	if scheme == SchemePlaceholder {
		return URI{Scheme: SchemePlaceholder, Path: rest, Fragment: fragment}, true
	}
	return URI{Scheme: scheme, Path: Canonical(rest), Fragment: fragment}, true
}

// ForDocument returns the canonical file identifier for a document path.
func ForDocument(p string) URI {
	return URI{Scheme: SchemeFile, Path: Canonical(p)}
}

// Placeholder returns a placeholder identifier keyed by key. The key is
// stored verbatim; placeholder keys are not canonicalized because some of
// them are raw reference text rather than paths.
func Placeholder(key string) URI {
	return URI{Scheme: SchemePlaceholder, Path: key}
}

// IsPlaceholder reports whether u uses the reserved placeholder scheme.
func (u URI) IsPlaceholder() bool {
	return u.Scheme == SchemePlaceholder
}

// Basename returns the short name of u: the last path component with its
// extension removed.
func (u URI) Basename() string {
	return Basename(u.Path)
}

// String renders u for display and wire payloads. File identifiers render
// as their bare path; other schemes keep an explicit prefix.
func (u URI) String() string {
	s := u.Path
	if u.Scheme != "" && u.Scheme != SchemeFile {
		s = u.Scheme + ":" + s
	}
	if u.Fragment != "" {
		s += "#" + u.Fragment
	}
	return s
}

// MarshalJSON renders the identifier in its display form.
func (u URI) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// Canonical normalizes a document path into an index key: forward slashes,
// no leading "/" or "./", cleaned, and with DefaultExtension appended when
// the last component has no extension.
func Canonical(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	if p == "." || p == "" {
		return ""
	}
	if path.Ext(p) == "" {
		p += DefaultExtension
	}
	return p
}

// Basename returns the last component of p without its extension.
func Basename(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Resolve computes the identifier of a literal reference string against an
// origin document. Rooted references resolve from the workspace root;
// anything else resolves relative to the origin's directory.
func Resolve(origin URI, ref string) URI {
	var fragment string
	if i := strings.Index(ref, "#"); i >= 0 {
		ref, fragment = ref[:i], ref[i+1:]
	}
	var p string
	if strings.HasPrefix(ref, "/") {
		p = ref
	} else {
		p = path.Join(path.Dir("/"+origin.Path), ref)
	}
	return URI{Scheme: SchemeFile, Path: Canonical(p), Fragment: fragment}
}
