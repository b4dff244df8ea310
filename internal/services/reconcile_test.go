package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/pagevault/pagevault-backend/internal/navtree"
)

func newReconcileFixture(t *testing.T) (*reconcileService, *fakeDocumentRepo, *fakeNavigationRepo) {
	t.Helper()
	docs := newFakeDocumentRepo()
	navs := &fakeNavigationRepo{}
	svc := NewReconcileService(nil, docs, navs, newTestLogger()).(*reconcileService)
	return svc, docs, navs
}

func TestCheckNavigationReportsDrift(t *testing.T) {
	svc, docs, navs := newReconcileFixture(t)
	docs.add("guides/install", "Install", true)
	docs.add("lonely", "Lonely", true)
	// guides/ghost has a route but no document; lonely has a document
	// but no route.
	navs.seed(mustEncode(t, navtree.Structure{
		Title:   "Documentation",
		Version: "1.0",
		Routes: []navtree.Route{
			{Title: "Guides", Path: "/docs/guides", Children: []navtree.Route{
				{Title: "Install", Path: "/docs/guides/install"},
				{Title: "Ghost", Path: "/docs/guides/ghost"},
			}},
		},
	}), 1)

	report, err := svc.CheckNavigation(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("CheckNavigation: %v", err)
	}
	if len(report.OrphanPaths) != 1 || report.OrphanPaths[0] != "/docs/guides/ghost" {
		t.Errorf("orphans = %v", report.OrphanPaths)
	}
	if len(report.UnlistedSlugs) != 1 || report.UnlistedSlugs[0] != "lonely" {
		t.Errorf("unlisted = %v", report.UnlistedSlugs)
	}
	if report.Clean() {
		t.Error("report claims clean")
	}
}

func TestCheckNavigationReportsMissingSlugs(t *testing.T) {
	svc, docs, navs := newReconcileFixture(t)
	docs.add("guides/install", "Install", true)
	// Raw row written before the slug field existed.
	navs.seed([]byte(`{"title":"Documentation","version":"1.0","routes":[{"title":"Guides","path":"/docs/guides","children":[{"title":"Install","path":"/docs/guides/install"}]}]}`), 1)

	report, err := svc.CheckNavigation(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("CheckNavigation: %v", err)
	}
	if len(report.MissingSlugs) != 2 {
		t.Errorf("missing slugs = %v, want both nodes", report.MissingSlugs)
	}
}

func TestCheckNavigationEmptyProject(t *testing.T) {
	svc, _, _ := newReconcileFixture(t)

	report, err := svc.CheckNavigation(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("CheckNavigation: %v", err)
	}
	if !report.Clean() {
		t.Errorf("empty project reports drift: %+v", report)
	}
}

func TestFixNavigationIsIdempotent(t *testing.T) {
	svc, docs, navs := newReconcileFixture(t)
	ctx := context.Background()
	projectID := uuid.New()
	actor := uuid.New()

	docs.add("guides/install", "Install", true)
	docs.add("lonely", "Lonely Page", true)
	navs.seed([]byte(`{"title":"Documentation","version":"1.0","routes":[{"title":"Guides","path":"/docs/guides","children":[{"title":"Install","path":"/docs/guides/install"},{"title":"Ghost","path":"/docs/guides/ghost"}]}]}`), 1)

	report, err := svc.CheckNavigation(ctx, projectID)
	if err != nil {
		t.Fatalf("CheckNavigation: %v", err)
	}
	if err := svc.fixNavigation(ctx, nil, projectID, report, true, true, actor); err != nil {
		t.Fatalf("fixNavigation: %v", err)
	}

	after, err := svc.CheckNavigation(ctx, projectID)
	if err != nil {
		t.Fatalf("CheckNavigation after fix: %v", err)
	}
	if !after.Clean() {
		t.Fatalf("report after fix not clean: %+v", after)
	}

	structure := navtree.Decode(navs.nav.Structure)
	if navtree.ContainsPath(structure, "/docs/guides/ghost") {
		t.Error("orphan route survived prune")
	}
	if !navtree.ContainsPath(structure, "/docs/lonely") {
		t.Error("unlisted document not appended")
	}

	// Running the same fix again changes nothing.
	if err := svc.fixNavigation(ctx, nil, projectID, after, true, true, actor); err != nil {
		t.Fatalf("repeat fixNavigation: %v", err)
	}
	again := navtree.Decode(navs.nav.Structure)
	if len(navtree.Paths(again)) != len(navtree.Paths(structure)) {
		t.Error("repeated fix changed the tree")
	}
}

func TestFixNavigationDedupesPaths(t *testing.T) {
	svc, docs, navs := newReconcileFixture(t)
	ctx := context.Background()
	projectID := uuid.New()

	docs.add("guides/install", "Install", true)
	navs.seed([]byte(`{"title":"Documentation","version":"1.0","routes":[{"title":"Guides","path":"/docs/guides","children":[{"title":"Install","path":"/docs/guides/install"},{"title":"Install Again","path":"/docs/guides/install"}]}]}`), 1)

	report, err := svc.CheckNavigation(ctx, projectID)
	if err != nil {
		t.Fatalf("CheckNavigation: %v", err)
	}
	if len(report.DuplicatePaths) != 1 {
		t.Fatalf("duplicates = %v, want one", report.DuplicatePaths)
	}
	if err := svc.fixNavigation(ctx, nil, projectID, report, false, false, uuid.New()); err != nil {
		t.Fatalf("fixNavigation: %v", err)
	}
	after, _ := svc.CheckNavigation(ctx, projectID)
	if len(after.DuplicatePaths) != 0 {
		t.Errorf("duplicates after fix = %v", after.DuplicatePaths)
	}
}
