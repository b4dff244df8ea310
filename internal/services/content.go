package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/navtree"
	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/types"
)

// navMutateAttempts bounds the read-modify-swap retry loop used by
// server-composed tree mutations when a concurrent replace wins.
const navMutateAttempts = 3

// NavigationView is the navigation read model: the decoded tree plus
// the revision a writer must present to replace it.
type NavigationView struct {
	Structure navtree.Structure `json:"structure"`
	Revision  int               `json:"revision"`
}

type ContentService interface {
	GetDocument(ctx context.Context, projectID uuid.UUID, slug string) (*types.Document, error)
	SaveDocument(ctx context.Context, projectID uuid.UUID, slug string, fields repos.DocumentFields, actorID uuid.UUID) (*types.Document, error)
	DeleteDocument(ctx context.Context, projectID uuid.UUID, slug string, actorID uuid.UUID) error
	ListDocuments(ctx context.Context, projectID uuid.UUID) ([]types.DocMeta, error)
	GetNavigation(ctx context.Context, projectID uuid.UUID) (*NavigationView, error)
	UpdateNavigation(ctx context.Context, projectID uuid.UUID, structure navtree.Structure, baseRevision *int, actorID uuid.UUID) (*NavigationView, error)
}

type contentService struct {
	db   *gorm.DB
	docs repos.DocumentRepo
	navs repos.NavigationRepo
	log  *logger.Logger
}

func NewContentService(db *gorm.DB, docs repos.DocumentRepo, navs repos.NavigationRepo, baseLog *logger.Logger) ContentService {
	serviceLog := baseLog.With("service", "ContentService")
	return &contentService{db: db, docs: docs, navs: navs, log: serviceLog}
}

// GetDocument returns the published document for a slug, or nil when it
// does not exist. Read failures are logged and reported as absent so a
// storage hiccup renders as a 404 rather than a broken page.
func (s *contentService) GetDocument(ctx context.Context, projectID uuid.UUID, slug string) (*types.Document, error) {
	doc, err := s.docs.GetPublished(ctx, nil, projectID, slug)
	if err != nil {
		s.log.Error("Failed to read document", "project_id", projectID, "slug", slug, "error", err)
		return nil, nil
	}
	return doc, nil
}

// SaveDocument upserts a document by slug. It never touches the
// navigation tree; listing a document is a separate, explicit act.
func (s *contentService) SaveDocument(ctx context.Context, projectID uuid.UUID, slug string, fields repos.DocumentFields, actorID uuid.UUID) (*types.Document, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("document writes require an authenticated user"))
	}
	doc, err := s.docs.Upsert(ctx, nil, projectID, slug, fields, actorID)
	if err != nil {
		return nil, fmt.Errorf("save document %q: %w", slug, err)
	}
	return doc, nil
}

// DeleteDocument removes the document row and prunes its route from the
// navigation tree in one transaction, so neither a dangling route nor
// an unlisted document can survive the call. Deleting a slug that does
// not exist is a no-op.
func (s *contentService) DeleteDocument(ctx context.Context, projectID uuid.UUID, slug string, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return apierr.Unauthorized(fmt.Errorf("document writes require an authenticated user"))
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.deleteDocument(ctx, tx, projectID, slug, actorID)
	})
}

func (s *contentService) deleteDocument(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string, actorID uuid.UUID) error {
	if err := s.docs.Delete(ctx, tx, projectID, slug); err != nil {
		return fmt.Errorf("delete document %q: %w", slug, err)
	}
	path := navtree.PathForSlug(slug)
	nav, err := s.navs.GetLatest(ctx, tx, projectID)
	if err != nil {
		return fmt.Errorf("read navigation: %w", err)
	}
	if nav == nil || !navtree.ContainsPath(navtree.Decode(nav.Structure), path) {
		return nil
	}
	_, _, err = applyNavMutation(ctx, tx, s.navs, projectID, actorID, func(st *navtree.Structure) error {
		navtree.RemovePath(st, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune route %q: %w", path, err)
	}
	return nil
}

func (s *contentService) ListDocuments(ctx context.Context, projectID uuid.UUID) ([]types.DocMeta, error) {
	docs, err := s.docs.ListPublished(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	metas := make([]types.DocMeta, 0, len(docs))
	for _, doc := range docs {
		metas = append(metas, doc.Meta())
	}
	return metas, nil
}

// GetNavigation returns the project tree, or the default empty tree at
// revision zero when none has been written yet. Routes is never nil;
// a failed read degrades to the default rather than breaking the page.
func (s *contentService) GetNavigation(ctx context.Context, projectID uuid.UUID) (*NavigationView, error) {
	nav, err := s.navs.GetLatest(ctx, nil, projectID)
	if err != nil {
		s.log.Error("Failed to read navigation", "project_id", projectID, "error", err)
		return &NavigationView{Structure: navtree.Default(), Revision: 0}, nil
	}
	if nav == nil {
		return &NavigationView{Structure: navtree.Default(), Revision: 0}, nil
	}
	return &NavigationView{Structure: navtree.Decode(nav.Structure), Revision: nav.Revision}, nil
}

// UpdateNavigation replaces the whole tree. When baseRevision is set
// the replace is a compare-and-swap and a stale base yields a conflict;
// when nil the caller takes whatever revision is current.
func (s *contentService) UpdateNavigation(ctx context.Context, projectID uuid.UUID, structure navtree.Structure, baseRevision *int, actorID uuid.UUID) (*NavigationView, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("navigation writes require an authenticated user"))
	}
	if err := navtree.Validate(structure); err != nil {
		return nil, apierr.Validation(err)
	}
	encoded, err := navtree.Encode(structure)
	if err != nil {
		return nil, fmt.Errorf("encode navigation: %w", err)
	}

	nav, err := s.navs.GetLatest(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("read navigation: %w", err)
	}
	if nav == nil {
		created, err := s.navs.Insert(ctx, nil, projectID, encoded, actorID)
		if err != nil {
			return nil, fmt.Errorf("insert navigation: %w", err)
		}
		return &NavigationView{Structure: structure, Revision: created.Revision}, nil
	}

	base := nav.Revision
	if baseRevision != nil {
		base = *baseRevision
	}
	err = s.navs.Replace(ctx, nil, projectID, encoded, actorID, base)
	if errors.Is(err, repos.ErrNavigationConflict) {
		return nil, apierr.Conflict(fmt.Errorf("navigation changed since revision %d", base))
	}
	if err != nil {
		return nil, fmt.Errorf("replace navigation: %w", err)
	}
	return &NavigationView{Structure: structure, Revision: base + 1}, nil
}

// applyNavMutation runs a read-modify-swap over the stored tree. The
// mutation closure sees the decoded current structure; if another
// writer swaps the tree first, the loop re-reads and reapplies.
func applyNavMutation(ctx context.Context, tx *gorm.DB, navs repos.NavigationRepo, projectID, actorID uuid.UUID, mutate func(*navtree.Structure) error) (navtree.Structure, int, error) {
	var lastErr error
	for attempt := 0; attempt < navMutateAttempts; attempt++ {
		nav, err := navs.GetLatest(ctx, tx, projectID)
		if err != nil {
			return navtree.Structure{}, 0, err
		}
		structure := navtree.Default()
		baseRevision := 0
		if nav != nil {
			structure = navtree.Decode(nav.Structure)
			baseRevision = nav.Revision
		}
		if err := mutate(&structure); err != nil {
			return navtree.Structure{}, 0, err
		}
		encoded, err := navtree.Encode(structure)
		if err != nil {
			return navtree.Structure{}, 0, err
		}
		if nav == nil {
			created, err := navs.Insert(ctx, tx, projectID, encoded, actorID)
			if err != nil {
				return navtree.Structure{}, 0, err
			}
			return structure, created.Revision, nil
		}
		err = navs.Replace(ctx, tx, projectID, encoded, actorID, baseRevision)
		if errors.Is(err, repos.ErrNavigationConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return navtree.Structure{}, 0, err
		}
		return structure, baseRevision + 1, nil
	}
	return navtree.Structure{}, 0, fmt.Errorf("navigation mutation lost %d races: %w", navMutateAttempts, lastErr)
}
