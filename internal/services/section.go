package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/navtree"
	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/types"
)

// SectionService covers the server-composed tree mutations: operations
// that touch both the navigation tree and the document store commit in
// one transaction so the two never drift apart.
type SectionService interface {
	CreateSection(ctx context.Context, projectID uuid.UUID, title, slug string, withOverview bool, actorID uuid.UUID) (*NavigationView, error)
	RenameSection(ctx context.Context, projectID uuid.UUID, sectionSlug, title string, actorID uuid.UUID) (*NavigationView, error)
	DeleteSection(ctx context.Context, projectID uuid.UUID, sectionSlug string, deleteDocuments bool, actorID uuid.UUID) (*NavigationView, error)
	CreateDocument(ctx context.Context, projectID uuid.UUID, sectionSlug, title, slug, description string, actorID uuid.UUID) (*types.Document, *NavigationView, error)
	AddOverview(ctx context.Context, projectID uuid.UUID, sectionSlug string, actorID uuid.UUID) (*types.Document, error)
	RemoveOverview(ctx context.Context, projectID uuid.UUID, sectionSlug string, actorID uuid.UUID) error
}

type sectionService struct {
	db   *gorm.DB
	docs repos.DocumentRepo
	navs repos.NavigationRepo
	log  *logger.Logger
}

func NewSectionService(db *gorm.DB, docs repos.DocumentRepo, navs repos.NavigationRepo, baseLog *logger.Logger) SectionService {
	serviceLog := baseLog.With("service", "SectionService")
	return &sectionService{db: db, docs: docs, navs: navs, log: serviceLog}
}

func (s *sectionService) CreateSection(ctx context.Context, projectID uuid.UUID, title, slug string, withOverview bool, actorID uuid.UUID) (*NavigationView, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("section writes require an authenticated user"))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.Validation(fmt.Errorf("section title required"))
	}
	if slug == "" {
		slug = navtree.Slugify(title)
	}
	if slug == "" {
		return nil, apierr.Validation(fmt.Errorf("section title yields an empty slug"))
	}

	var view *NavigationView
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		view, err = s.createSection(ctx, tx, projectID, title, slug, withOverview, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Created section", "project_id", projectID, "section", slug, "with_overview", withOverview)
	return view, nil
}

func (s *sectionService) createSection(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, title, slug string, withOverview bool, actorID uuid.UUID) (*NavigationView, error) {
	structure, revision, err := applyNavMutation(ctx, tx, s.navs, projectID, actorID, func(st *navtree.Structure) error {
		if err := navtree.InsertSection(st, title, slug); err != nil {
			return apierr.Conflict(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if withOverview {
		fields := repos.DocumentFields{Title: &title}
		if _, err := s.docs.Upsert(ctx, tx, projectID, slug, fields, actorID); err != nil {
			return nil, fmt.Errorf("create overview document: %w", err)
		}
	}
	return &NavigationView{Structure: structure, Revision: revision}, nil
}

// RenameSection retitles the section node and keeps an overview
// document, when one exists, titled to match.
func (s *sectionService) RenameSection(ctx context.Context, projectID uuid.UUID, sectionSlug, title string, actorID uuid.UUID) (*NavigationView, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("section writes require an authenticated user"))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.Validation(fmt.Errorf("section title required"))
	}

	var view *NavigationView
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		view, err = s.renameSection(ctx, tx, projectID, sectionSlug, title, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *sectionService) renameSection(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, sectionSlug, title string, actorID uuid.UUID) (*NavigationView, error) {
	structure, revision, err := applyNavMutation(ctx, tx, s.navs, projectID, actorID, func(st *navtree.Structure) error {
		if !navtree.Rename(st, sectionSlug, title) {
			return apierr.NotFound(fmt.Errorf("section %q not found", sectionSlug))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	overview, err := s.docs.GetBySlug(ctx, tx, projectID, sectionSlug)
	if err != nil {
		return nil, fmt.Errorf("read overview document: %w", err)
	}
	if overview != nil {
		if err := s.docs.UpdateTitle(ctx, tx, projectID, sectionSlug, title, actorID); err != nil {
			return nil, fmt.Errorf("retitle overview document: %w", err)
		}
	}
	return &NavigationView{Structure: structure, Revision: revision}, nil
}

// DeleteSection drops the section node and, when asked, the documents
// it referenced, overview included.
func (s *sectionService) DeleteSection(ctx context.Context, projectID uuid.UUID, sectionSlug string, deleteDocuments bool, actorID uuid.UUID) (*NavigationView, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("section writes require an authenticated user"))
	}

	var view *NavigationView
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		view, err = s.deleteSection(ctx, tx, projectID, sectionSlug, deleteDocuments, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Deleted section", "project_id", projectID, "section", sectionSlug, "deleted_documents", deleteDocuments)
	return view, nil
}

func (s *sectionService) deleteSection(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, sectionSlug string, deleteDocuments bool, actorID uuid.UUID) (*NavigationView, error) {
	var childSlugs []string
	structure, revision, err := applyNavMutation(ctx, tx, s.navs, projectID, actorID, func(st *navtree.Structure) error {
		slugs, ok := navtree.RemoveSection(st, sectionSlug)
		if !ok {
			return apierr.NotFound(fmt.Errorf("section %q not found", sectionSlug))
		}
		childSlugs = slugs
		return nil
	})
	if err != nil {
		return nil, err
	}
	if deleteDocuments {
		for _, slug := range append(childSlugs, sectionSlug) {
			if err := s.docs.Delete(ctx, tx, projectID, slug); err != nil {
				return nil, fmt.Errorf("delete document %q: %w", slug, err)
			}
		}
	}
	return &NavigationView{Structure: structure, Revision: revision}, nil
}

// CreateDocument writes the document row and its navigation reference
// in one transaction.
func (s *sectionService) CreateDocument(ctx context.Context, projectID uuid.UUID, sectionSlug, title, slug, description string, actorID uuid.UUID) (*types.Document, *NavigationView, error) {
	if actorID == uuid.Nil {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("document writes require an authenticated user"))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil, apierr.Validation(fmt.Errorf("document title required"))
	}
	if slug == "" {
		slug = navtree.Slugify(title)
	}
	if slug == "" {
		return nil, nil, apierr.Validation(fmt.Errorf("document title yields an empty slug"))
	}
	docSlug := sectionSlug + "/" + slug

	var doc *types.Document
	var view *NavigationView
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		doc, view, err = s.createDocument(ctx, tx, projectID, sectionSlug, docSlug, title, description, actorID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, view, nil
}

func (s *sectionService) createDocument(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, sectionSlug, docSlug, title, description string, actorID uuid.UUID) (*types.Document, *NavigationView, error) {
	fields := repos.DocumentFields{Title: &title}
	if description != "" {
		fields.Description = &description
	}
	doc, err := s.docs.Upsert(ctx, tx, projectID, docSlug, fields, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("create document: %w", err)
	}
	structure, revision, err := applyNavMutation(ctx, tx, s.navs, projectID, actorID, func(st *navtree.Structure) error {
		child := navtree.Route{
			Title: title,
			Path:  navtree.PathForSlug(docSlug),
			Slug:  docSlug,
		}
		if err := navtree.InsertChild(st, sectionSlug, child); err != nil {
			return apierr.NotFound(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, &NavigationView{Structure: structure, Revision: revision}, nil
}

// AddOverview creates the document that shares the section's slug. The
// tree is untouched; the section route already carries the path.
func (s *sectionService) AddOverview(ctx context.Context, projectID uuid.UUID, sectionSlug string, actorID uuid.UUID) (*types.Document, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("document writes require an authenticated user"))
	}
	nav, err := s.navs.GetLatest(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("read navigation: %w", err)
	}
	var section *navtree.Route
	if nav != nil {
		structure := navtree.Decode(nav.Structure)
		section = navtree.FindSection(structure.Routes, sectionSlug)
	}
	if section == nil {
		return nil, apierr.NotFound(fmt.Errorf("section %q not found", sectionSlug))
	}
	doc, err := s.docs.Upsert(ctx, nil, projectID, sectionSlug, repos.DocumentFields{Title: &section.Title}, actorID)
	if err != nil {
		return nil, fmt.Errorf("create overview document: %w", err)
	}
	return doc, nil
}

// RemoveOverview deletes only the overview document. Sections are never
// pruned by a document delete, so the node stays in place.
func (s *sectionService) RemoveOverview(ctx context.Context, projectID uuid.UUID, sectionSlug string, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return apierr.Unauthorized(fmt.Errorf("document writes require an authenticated user"))
	}
	if err := s.docs.Delete(ctx, nil, projectID, sectionSlug); err != nil {
		return fmt.Errorf("delete overview document: %w", err)
	}
	return nil
}
