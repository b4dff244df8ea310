// Package navtree holds the navigation tree aggregate: the persisted
// {title, version, routes} structure, its decoding rules, and the
// command-style mutations every write path goes through. The package
// is pure; persistence is the caller's concern.
package navtree

import (
	"bytes"
	"encoding/json"
	"strings"
)

const PathPrefix = "/docs/"

// Route is one node of the tree. A node with children is a section; a
// node without children references a document. Slug is the canonical
// identifier written on every creation path; trees created before the
// field existed are matched by the heuristics in FindSection and
// backfilled by Normalize.
type Route struct {
	Title    string  `json:"title"`
	Path     string  `json:"path"`
	Slug     string  `json:"slug,omitempty"`
	Children []Route `json:"children,omitempty"`
}

type Structure struct {
	Title   string  `json:"title"`
	Version string  `json:"version"`
	Routes  []Route `json:"routes"`
}

func Default() Structure {
	return Structure{
		Title:   "Documentation",
		Version: "1.0",
		Routes:  []Route{},
	}
}

// Decode parses a stored structure. Some historical rows were written
// double-encoded (a JSON string containing JSON); both forms decode to
// the same value. Anything unparseable decodes to the default so a
// malformed row never reaches callers.
func Decode(raw []byte) Structure {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Default()
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return Default()
		}
		trimmed = []byte(inner)
	}
	var s Structure
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Default()
	}
	Normalize(&s)
	return s
}

func Encode(s Structure) ([]byte, error) {
	Normalize(&s)
	return json.Marshal(s)
}

// Normalize guarantees the invariants callers rely on: routes is never
// nil and every node carries its canonical slug.
func Normalize(s *Structure) {
	if s.Title == "" {
		s.Title = "Documentation"
	}
	if s.Version == "" {
		s.Version = "1.0"
	}
	if s.Routes == nil {
		s.Routes = []Route{}
	}
	for i := range s.Routes {
		normalizeRoute(&s.Routes[i])
	}
}

func normalizeRoute(r *Route) {
	if r.Slug == "" {
		r.Slug = CanonicalSlug(*r)
	}
	for i := range r.Children {
		normalizeRoute(&r.Children[i])
	}
}

// CanonicalSlug derives a node's identifier: its own path, then its
// explicit slug, then its slugified title, then the shared prefix of
// its first child (legacy category sections have no path of their own).
func CanonicalSlug(r Route) string {
	if slug := SlugFromPath(r.Path); slug != "" {
		return slug
	}
	if r.Slug != "" {
		return r.Slug
	}
	if slug := Slugify(r.Title); slug != "" {
		return slug
	}
	if len(r.Children) > 0 {
		child := r.Children[0]
		childSlug := child.Slug
		if childSlug == "" {
			childSlug = SlugFromPath(child.Path)
		}
		if idx := strings.Index(childSlug, "/"); idx > 0 {
			return childSlug[:idx]
		}
	}
	return ""
}

// SlugFromPath strips the "/docs/" prefix; returns "" for paths
// outside the documentation namespace.
func SlugFromPath(path string) string {
	if !strings.HasPrefix(path, PathPrefix) {
		return ""
	}
	return strings.Trim(strings.TrimPrefix(path, PathPrefix), "/")
}

func PathForSlug(slug string) string {
	return PathPrefix + strings.Trim(slug, "/")
}

// Slugify mirrors the identifier the editing UI derives from a title:
// lowercase, tags stripped, runs of non-alphanumerics collapsed to one
// hyphen, no leading or trailing hyphen.
func Slugify(title string) string {
	lower := strings.ToLower(title)
	var b strings.Builder
	inTag := false
	lastHyphen := true
	for _, r := range lower {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case inTag:
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
