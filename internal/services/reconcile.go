package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/navtree"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/types"
)

// ReconcileReport describes how a project's navigation tree and its
// document store disagree. Trees written before mutations became
// transactional can carry any of these.
type ReconcileReport struct {
	ProjectID      uuid.UUID `json:"project_id"`
	OrphanPaths    []string  `json:"orphan_paths"`
	UnlistedSlugs  []string  `json:"unlisted_slugs"`
	DuplicatePaths []string  `json:"duplicate_paths"`
	MissingSlugs   []string  `json:"missing_slugs"`
}

func (r *ReconcileReport) Clean() bool {
	return len(r.OrphanPaths) == 0 &&
		len(r.UnlistedSlugs) == 0 &&
		len(r.DuplicatePaths) == 0 &&
		len(r.MissingSlugs) == 0
}

type ReconcileService interface {
	CheckNavigation(ctx context.Context, projectID uuid.UUID) (*ReconcileReport, error)
	FixNavigation(ctx context.Context, projectID uuid.UUID, prune, appendMissing bool, actorID uuid.UUID) (*ReconcileReport, error)
}

type reconcileService struct {
	db   *gorm.DB
	docs repos.DocumentRepo
	navs repos.NavigationRepo
	log  *logger.Logger
}

func NewReconcileService(db *gorm.DB, docs repos.DocumentRepo, navs repos.NavigationRepo, baseLog *logger.Logger) ReconcileService {
	serviceLog := baseLog.With("service", "ReconcileService")
	return &reconcileService{db: db, docs: docs, navs: navs, log: serviceLog}
}

func (s *reconcileService) CheckNavigation(ctx context.Context, projectID uuid.UUID) (*ReconcileReport, error) {
	nav, err := s.navs.GetLatest(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("read navigation: %w", err)
	}
	docs, err := s.docs.ListPublished(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	report := &ReconcileReport{
		ProjectID:      projectID,
		OrphanPaths:    []string{},
		UnlistedSlugs:  []string{},
		DuplicatePaths: []string{},
		MissingSlugs:   []string{},
	}
	var structure navtree.Structure
	if nav == nil {
		structure = navtree.Default()
	} else {
		structure = navtree.Decode(nav.Structure)
		report.MissingSlugs = slugsMissingFromRaw(nav.Structure)
	}

	bySlug := make(map[string]*types.Document, len(docs))
	for _, doc := range docs {
		bySlug[doc.Slug] = doc
	}

	seen := make(map[string]struct{})
	var walk func(routes []navtree.Route)
	walk = func(routes []navtree.Route) {
		for _, route := range routes {
			if route.Path != "" {
				if _, dup := seen[route.Path]; dup {
					report.DuplicatePaths = append(report.DuplicatePaths, route.Path)
				}
				seen[route.Path] = struct{}{}
			}
			if len(route.Children) == 0 {
				slug := navtree.SlugFromPath(route.Path)
				if slug == "" || bySlug[slug] == nil {
					report.OrphanPaths = append(report.OrphanPaths, route.Path)
				}
			}
			walk(route.Children)
		}
	}
	walk(structure.Routes)

	for _, doc := range docs {
		if !navtree.ContainsPath(structure, navtree.PathForSlug(doc.Slug)) {
			report.UnlistedSlugs = append(report.UnlistedSlugs, doc.Slug)
		}
	}
	return report, nil
}

// FixNavigation repairs what CheckNavigation reports: slug backfill
// always, orphan pruning and unlisted appends on request. Running it
// twice is a no-op the second time.
func (s *reconcileService) FixNavigation(ctx context.Context, projectID uuid.UUID, prune, appendMissing bool, actorID uuid.UUID) (*ReconcileReport, error) {
	report, err := s.CheckNavigation(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if report.Clean() {
		return report, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.fixNavigation(ctx, tx, projectID, report, prune, appendMissing, actorID)
	})
	if err != nil {
		return nil, fmt.Errorf("fix navigation: %w", err)
	}
	s.log.Info("Reconciled navigation", "project_id", projectID,
		"pruned", prune, "appended", appendMissing,
		"orphans", len(report.OrphanPaths), "unlisted", len(report.UnlistedSlugs))
	return s.CheckNavigation(ctx, projectID)
}

func (s *reconcileService) fixNavigation(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, report *ReconcileReport, prune, appendMissing bool, actorID uuid.UUID) error {
	docs, err := s.docs.ListPublished(ctx, tx, projectID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	titles := make(map[string]string, len(docs))
	for _, doc := range docs {
		titles[doc.Slug] = doc.Title
	}

	_, _, err = applyNavMutation(ctx, tx, s.navs, projectID, actorID, func(st *navtree.Structure) error {
		dedupePaths(st)
		if prune {
			for _, path := range report.OrphanPaths {
				navtree.RemovePath(st, path)
			}
		}
		if appendMissing {
			for _, slug := range report.UnlistedSlugs {
				path := navtree.PathForSlug(slug)
				if navtree.ContainsPath(*st, path) {
					continue
				}
				st.Routes = append(st.Routes, navtree.Route{
					Title: titles[slug],
					Path:  path,
					Slug:  slug,
				})
			}
		}
		return nil
	})
	return err
}

func dedupePaths(s *navtree.Structure) {
	seen := make(map[string]struct{})
	var filter func(routes []navtree.Route) []navtree.Route
	filter = func(routes []navtree.Route) []navtree.Route {
		out := routes[:0]
		for _, r := range routes {
			if r.Path != "" && len(r.Children) == 0 {
				if _, dup := seen[r.Path]; dup {
					continue
				}
			}
			if r.Path != "" {
				seen[r.Path] = struct{}{}
			}
			r.Children = filter(r.Children)
			out = append(out, r)
		}
		return out
	}
	s.Routes = filter(s.Routes)
}

// slugsMissingFromRaw inspects the stored bytes before normalization;
// Decode backfills slugs, which would hide exactly what this reports.
func slugsMissingFromRaw(raw []byte) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []string{}
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return []string{}
		}
		trimmed = []byte(inner)
	}
	var stored navtree.Structure
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return []string{}
	}
	missing := []string{}
	var walk func(routes []navtree.Route)
	walk = func(routes []navtree.Route) {
		for _, r := range routes {
			if r.Slug == "" && r.Path != "" {
				missing = append(missing, r.Path)
			}
			walk(r.Children)
		}
	}
	walk(stored.Routes)
	return missing
}
