package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/pagevault/pagevault-backend/internal/navtree"
)

func newResolverFixture(t *testing.T) (*resolverService, *fakeDocumentRepo, *fakeNavigationRepo) {
	t.Helper()
	docs := newFakeDocumentRepo()
	navs := &fakeNavigationRepo{}
	navs.seed(mustEncode(t, navtree.Structure{
		Title:   "Documentation",
		Version: "1.0",
		Routes: []navtree.Route{
			{Title: "Guides", Path: "/docs/guides", Children: []navtree.Route{
				{Title: "Install", Path: "/docs/guides/install"},
				{Title: "Configure", Path: "/docs/guides/configure"},
			}},
		},
	}), 1)
	svc := NewResolverService(nil, docs, navs, newTestLogger()).(*resolverService)
	return svc, docs, navs
}

func TestResolvePlainDocument(t *testing.T) {
	svc, docs, _ := newResolverFixture(t)
	docs.add("standalone", "Standalone", true)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"standalone"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ResolutionDocument {
		t.Fatalf("kind = %q, want document", res.Kind)
	}
	if res.Document == nil || res.Document.Slug != "standalone" {
		t.Errorf("document = %+v", res.Document)
	}
}

func TestResolveSectionWithOverview(t *testing.T) {
	svc, docs, _ := newResolverFixture(t)
	docs.add("guides", "Guides", true)
	docs.add("guides/install", "Install", true)
	docs.add("guides/configure", "Configure", false)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"guides"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ResolutionSectionWithOverview {
		t.Fatalf("kind = %q, want section_with_overview", res.Kind)
	}
	if res.Overview == nil || res.Overview.Slug != "guides" {
		t.Errorf("overview = %+v", res.Overview)
	}
	if res.Section == nil || res.Section.Title != "Guides" {
		t.Errorf("section = %+v", res.Section)
	}
	// Only the published child shows; unpublished configure is hidden.
	if len(res.Children) != 1 || res.Children[0].Slug != "guides/install" {
		t.Errorf("children = %+v, want [guides/install]", res.Children)
	}
}

func TestResolveSectionWithoutOverview(t *testing.T) {
	svc, docs, _ := newResolverFixture(t)
	docs.add("guides/install", "Install", true)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"guides"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ResolutionSectionWithoutOverview {
		t.Fatalf("kind = %q, want section_without_overview", res.Kind)
	}
	if res.Overview != nil {
		t.Errorf("overview = %+v, want nil", res.Overview)
	}
}

func TestResolveEmptySection(t *testing.T) {
	// A just-created section has a route but no children and no
	// documents yet; it still renders as a section, not a 404.
	docs := newFakeDocumentRepo()
	navs := &fakeNavigationRepo{}
	navs.seed(mustEncode(t, navtree.Structure{
		Title:   "Documentation",
		Version: "1.0",
		Routes: []navtree.Route{
			{Title: "Drafts", Path: "/docs/drafts", Slug: "drafts"},
		},
	}), 1)
	svc := NewResolverService(nil, docs, navs, newTestLogger()).(*resolverService)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"drafts"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ResolutionSectionWithoutOverview {
		t.Fatalf("kind = %q, want section_without_overview", res.Kind)
	}
	if res.Section == nil || res.Section.Title != "Drafts" {
		t.Errorf("section = %+v", res.Section)
	}
	if len(res.Children) != 0 {
		t.Errorf("children = %+v, want none", res.Children)
	}
}

func TestResolveSectionWinsOverSameSlugDocument(t *testing.T) {
	// A document sharing a section's slug becomes the overview instead
	// of shadowing the section.
	svc, docs, _ := newResolverFixture(t)
	docs.add("guides", "Guides Overview", true)
	docs.add("guides/install", "Install", true)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"guides"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ResolutionSectionWithOverview {
		t.Fatalf("kind = %q, want section_with_overview", res.Kind)
	}
	if res.Document != nil {
		t.Error("plain document set for a section slug")
	}
}

func TestResolveNestedDocument(t *testing.T) {
	svc, docs, _ := newResolverFixture(t)
	docs.add("guides/install", "Install", true)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"guides", "install"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ResolutionDocument {
		t.Fatalf("kind = %q, want document", res.Kind)
	}
	if res.Document.Slug != "guides/install" {
		t.Errorf("slug = %q", res.Document.Slug)
	}
}

func TestResolveChildOrderFollowsTree(t *testing.T) {
	svc, docs, _ := newResolverFixture(t)
	docs.add("guides/install", "Install", true)
	docs.add("guides/configure", "Configure", true)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"guides"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"guides/install", "guides/configure"}
	if len(res.Children) != len(want) {
		t.Fatalf("children = %d, want %d", len(res.Children), len(want))
	}
	for i, slug := range want {
		if res.Children[i].Slug != slug {
			t.Errorf("children[%d] = %q, want %q", i, res.Children[i].Slug, slug)
		}
	}
}

func TestResolveNotFound(t *testing.T) {
	svc, _, _ := newResolverFixture(t)

	res, err := svc.Resolve(context.Background(), uuid.New(), []string{"missing"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ResolutionNotFound {
		t.Errorf("kind = %q, want not_found", res.Kind)
	}

	res, err = svc.Resolve(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Resolve empty: %v", err)
	}
	if res.Kind != ResolutionNotFound {
		t.Errorf("kind for empty path = %q, want not_found", res.Kind)
	}
}
