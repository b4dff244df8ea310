package navtree

import (
	"fmt"
	"strings"
)

// InsertSection appends a new top-level section route.
func InsertSection(s *Structure, title, slug string) error {
	Normalize(s)
	path := PathForSlug(slug)
	if findByPath(s.Routes, path) != nil {
		return fmt.Errorf("section %q already exists", slug)
	}
	s.Routes = append(s.Routes, Route{
		Title:    title,
		Path:     path,
		Slug:     slug,
		Children: []Route{},
	})
	return nil
}

// InsertChild appends a document reference to the named section.
func InsertChild(s *Structure, sectionSlug string, child Route) error {
	Normalize(s)
	section := FindSection(s.Routes, sectionSlug)
	if section == nil {
		return fmt.Errorf("section %q not found", sectionSlug)
	}
	if child.Slug == "" {
		child.Slug = SlugFromPath(child.Path)
	}
	if findByPath(s.Routes, child.Path) != nil {
		return fmt.Errorf("route %q already exists", child.Path)
	}
	section.Children = append(section.Children, child)
	return nil
}

// RemovePath prunes every leaf node whose path matches. Sections are
// never removed here, even when their path matches, so deleting a
// section-overview document leaves the section itself standing.
func RemovePath(s *Structure, path string) bool {
	Normalize(s)
	removed := false
	s.Routes = removeLeaf(s.Routes, path, &removed)
	return removed
}

func removeLeaf(routes []Route, path string, removed *bool) []Route {
	out := routes[:0]
	for _, r := range routes {
		if len(r.Children) == 0 && r.Path == path {
			*removed = true
			continue
		}
		r.Children = removeLeaf(r.Children, path, removed)
		out = append(out, r)
	}
	return out
}

// RemoveSection removes the matched top-level section and returns the
// slugs of the document references that went with it.
func RemoveSection(s *Structure, sectionSlug string) ([]string, bool) {
	Normalize(s)
	for i := range s.Routes {
		if matchesSection(s.Routes[i], sectionSlug) {
			var childSlugs []string
			collectSlugs(s.Routes[i].Children, &childSlugs)
			s.Routes = append(s.Routes[:i], s.Routes[i+1:]...)
			return childSlugs, true
		}
	}
	return nil, false
}

func collectSlugs(routes []Route, out *[]string) {
	for _, r := range routes {
		slug := r.Slug
		if slug == "" {
			slug = SlugFromPath(r.Path)
		}
		if slug != "" {
			*out = append(*out, slug)
		}
		collectSlugs(r.Children, out)
	}
}

// Rename retitles the matched section in place.
func Rename(s *Structure, sectionSlug, title string) bool {
	Normalize(s)
	section := FindSection(s.Routes, sectionSlug)
	if section == nil {
		return false
	}
	section.Title = title
	return true
}

// FindSection locates a top-level route for a slug using, in order:
// exact path, explicit slug field, slugified title, and the slug
// prefix shared with the section's first child.
func FindSection(routes []Route, slug string) *Route {
	for i := range routes {
		if matchesSection(routes[i], slug) {
			return &routes[i]
		}
	}
	return nil
}

func matchesSection(r Route, slug string) bool {
	if r.Path == PathForSlug(slug) {
		return true
	}
	if r.Slug != "" && r.Slug == slug {
		return true
	}
	if Slugify(r.Title) == slug {
		return true
	}
	if len(r.Children) > 0 {
		childSlug := r.Children[0].Slug
		if childSlug == "" {
			childSlug = SlugFromPath(r.Children[0].Path)
		}
		if first, _, found := strings.Cut(childSlug, "/"); found && first == slug {
			return true
		}
	}
	return false
}

func findByPath(routes []Route, path string) *Route {
	for i := range routes {
		if routes[i].Path == path {
			return &routes[i]
		}
		if found := findByPath(routes[i].Children, path); found != nil {
			return found
		}
	}
	return nil
}

// ContainsPath reports whether any node in the tree carries the path.
func ContainsPath(s Structure, path string) bool {
	return findByPath(s.Routes, path) != nil
}

// Paths lists every node path in depth-first sibling order.
func Paths(s Structure) []string {
	var out []string
	walkPaths(s.Routes, &out)
	return out
}

func walkPaths(routes []Route, out *[]string) {
	for _, r := range routes {
		if r.Path != "" {
			*out = append(*out, r.Path)
		}
		walkPaths(r.Children, out)
	}
}

// Validate applies the reorder protocol's structural checks: routes
// must be present (an array, possibly empty) and node paths must be
// unique across the whole tree. Order is carried purely by array
// position; any client-side order_index fields are ignored.
func Validate(s Structure) error {
	if s.Routes == nil {
		return fmt.Errorf("structure routes missing")
	}
	seen := make(map[string]struct{})
	for _, path := range Paths(s) {
		if _, dup := seen[path]; dup {
			return fmt.Errorf("duplicate route path %q", path)
		}
		seen[path] = struct{}{}
	}
	return nil
}
