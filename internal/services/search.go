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
)

type SearchResult struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Path        string `json:"path"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Section     string `json:"section,omitempty"`
	ChildCount  int    `json:"child_count,omitempty"`
}

type SearchService interface {
	Search(ctx context.Context, projectID uuid.UUID, query string) ([]SearchResult, error)
}

type searchService struct {
	db   *gorm.DB
	docs repos.DocumentRepo
	navs repos.NavigationRepo
	log  *logger.Logger
}

func NewSearchService(db *gorm.DB, docs repos.DocumentRepo, navs repos.NavigationRepo, baseLog *logger.Logger) SearchService {
	serviceLog := baseLog.With("service", "SearchService")
	return &searchService{db: db, docs: docs, navs: navs, log: serviceLog}
}

// Search merges navigation section matches with ranked document
// matches. Sections come first; document ranking (title over
// description over body) is the storage layer's. An empty query
// returns empty results without touching storage.
func (s *searchService) Search(ctx context.Context, projectID uuid.UUID, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	results := []SearchResult{}

	nav, err := s.navs.GetLatest(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("read navigation: %w", err)
	}
	if nav != nil {
		structure := navtree.Decode(nav.Structure)
		lowered := strings.ToLower(query)
		for _, route := range structure.Routes {
			if len(route.Children) == 0 {
				continue
			}
			if strings.Contains(strings.ToLower(route.Title), lowered) {
				results = append(results, SearchResult{
					Type:       "section",
					Title:      route.Title,
					Path:       route.Path,
					Slug:       route.Slug,
					ChildCount: len(route.Children),
				})
			}
		}
	}

	docs, err := s.docs.Search(ctx, nil, projectID, query)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	for _, doc := range docs {
		result := SearchResult{
			Type:        "document",
			Title:       doc.Title,
			Path:        navtree.PathForSlug(doc.Slug),
			Slug:        doc.Slug,
			Description: doc.Description,
			Section:     sectionLabel(doc.Slug),
		}
		if doc.ID != uuid.Nil {
			result.ID = doc.ID.String()
		}
		results = append(results, result)
	}
	return results, nil
}

// sectionLabel humanizes the section prefix of a nested slug:
// "guides/install-guide" labels as "Guides".
func sectionLabel(slug string) string {
	prefix, _, found := strings.Cut(slug, "/")
	if !found || prefix == "" {
		return ""
	}
	words := strings.Split(prefix, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
