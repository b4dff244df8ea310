package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/navtree"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/types"
)

type ResolutionKind string

const (
	ResolutionDocument               ResolutionKind = "document"
	ResolutionSectionWithOverview    ResolutionKind = "section_with_overview"
	ResolutionSectionWithoutOverview ResolutionKind = "section_without_overview"
	ResolutionNotFound               ResolutionKind = "not_found"
)

// Resolution is the answer to "what lives at this slug path". Section
// kinds carry the section route and its published children; the
// overview, when present, is the document sharing the section's slug.
type Resolution struct {
	Kind     ResolutionKind  `json:"kind"`
	Document *types.Document `json:"document,omitempty"`
	Section  *navtree.Route  `json:"section,omitempty"`
	Overview *types.Document `json:"overview,omitempty"`
	Children []types.DocMeta `json:"children,omitempty"`
}

type ResolverService interface {
	Resolve(ctx context.Context, projectID uuid.UUID, segments []string) (*Resolution, error)
}

type resolverService struct {
	db   *gorm.DB
	docs repos.DocumentRepo
	navs repos.NavigationRepo
	log  *logger.Logger
}

func NewResolverService(db *gorm.DB, docs repos.DocumentRepo, navs repos.NavigationRepo, baseLog *logger.Logger) ResolverService {
	serviceLog := baseLog.With("service", "ResolverService")
	return &resolverService{db: db, docs: docs, navs: navs, log: serviceLog}
}

// Resolve decides deterministically whether a slug path names a section
// or a document. A single segment that matches a section always renders
// as that section; a document sharing the section's slug becomes its
// overview rather than shadowing it. Everything else is a plain
// document lookup against published content.
func (s *resolverService) Resolve(ctx context.Context, projectID uuid.UUID, segments []string) (*Resolution, error) {
	slug := strings.Trim(strings.Join(segments, "/"), "/")
	if slug == "" {
		return &Resolution{Kind: ResolutionNotFound}, nil
	}

	if len(segments) == 1 {
		section, err := s.findSection(ctx, projectID, slug)
		if err != nil {
			return nil, err
		}
		if section != nil {
			return s.resolveSection(ctx, projectID, section, slug)
		}
	}

	doc, err := s.docs.GetPublished(ctx, nil, projectID, slug)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", slug, err)
	}
	if doc == nil {
		return &Resolution{Kind: ResolutionNotFound}, nil
	}
	return &Resolution{Kind: ResolutionDocument, Document: doc}, nil
}

func (s *resolverService) findSection(ctx context.Context, projectID uuid.UUID, slug string) (*navtree.Route, error) {
	nav, err := s.navs.GetLatest(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("read navigation: %w", err)
	}
	if nav == nil {
		return nil, nil
	}
	structure := navtree.Decode(nav.Structure)
	section := navtree.FindSection(structure.Routes, slug)
	if section == nil {
		return nil, nil
	}
	// Detach from the decoded tree before handing out.
	copied := *section
	copied.Children = append([]navtree.Route(nil), section.Children...)
	return &copied, nil
}

func (s *resolverService) resolveSection(ctx context.Context, projectID uuid.UUID, section *navtree.Route, slug string) (*Resolution, error) {
	overview, err := s.docs.GetPublished(ctx, nil, projectID, slug)
	if err != nil {
		return nil, fmt.Errorf("read overview %q: %w", slug, err)
	}

	childSlugs := make([]string, 0, len(section.Children))
	for _, child := range section.Children {
		childSlug := child.Slug
		if childSlug == "" {
			childSlug = navtree.SlugFromPath(child.Path)
		}
		if childSlug != "" {
			childSlugs = append(childSlugs, childSlug)
		}
	}
	docs, err := s.docs.ListBySlugs(ctx, nil, projectID, childSlugs)
	if err != nil {
		return nil, fmt.Errorf("list section documents: %w", err)
	}

	// Children come back in tree order; the navigation array is the
	// single source of ordering truth.
	bySlug := make(map[string]*types.Document, len(docs))
	for _, doc := range docs {
		bySlug[doc.Slug] = doc
	}
	children := make([]types.DocMeta, 0, len(childSlugs))
	for _, childSlug := range childSlugs {
		if doc, ok := bySlug[childSlug]; ok {
			children = append(children, doc.Meta())
		}
	}

	kind := ResolutionSectionWithoutOverview
	if overview != nil {
		kind = ResolutionSectionWithOverview
	}
	return &Resolution{
		Kind:     kind,
		Section:  section,
		Overview: overview,
		Children: children,
	}, nil
}
