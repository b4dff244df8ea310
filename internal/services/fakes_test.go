package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/types"
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// docFields builds an upsert payload; an empty title means "send no
// fields at all", exercising creation defaults.
func docFields(title string) repos.DocumentFields {
	if title == "" {
		return repos.DocumentFields{}
	}
	return repos.DocumentFields{Title: &title}
}

// fakeDocumentRepo is a single-project in-memory DocumentRepo. Search
// returns whatever the test primed; ranking is storage behavior and is
// not re-modeled here.
type fakeDocumentRepo struct {
	docs        map[string]*types.Document
	searchHits  []*types.Document
	searchCalls int
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: map[string]*types.Document{}}
}

func (f *fakeDocumentRepo) add(slug, title string, published bool) *types.Document {
	doc := &types.Document{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     title,
		Blocks:    datatypes.JSON([]byte("[]")),
		Published: published,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.docs[slug] = doc
	return doc
}

func (f *fakeDocumentRepo) GetBySlug(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Document, error) {
	return f.docs[slug], nil
}

func (f *fakeDocumentRepo) GetPublished(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Document, error) {
	doc := f.docs[slug]
	if doc == nil || !doc.Published {
		return nil, nil
	}
	return doc, nil
}

func (f *fakeDocumentRepo) Upsert(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string, fields repos.DocumentFields, actorID uuid.UUID) (*types.Document, error) {
	doc := f.docs[slug]
	if doc == nil {
		doc = &types.Document{
			ID:        uuid.New(),
			ProjectID: projectID,
			Slug:      slug,
			Title:     "Untitled",
			Blocks:    datatypes.JSON([]byte("[]")),
			Published: true,
			CreatedBy: actorID,
			CreatedAt: time.Now(),
		}
		f.docs[slug] = doc
	}
	if fields.Title != nil {
		doc.Title = *fields.Title
	}
	if fields.Description != nil {
		doc.Description = *fields.Description
	}
	if fields.Blocks != nil {
		doc.Blocks = fields.Blocks
	}
	if fields.Published != nil {
		doc.Published = *fields.Published
	}
	if fields.OrderIndex != nil {
		doc.OrderIndex = *fields.OrderIndex
	}
	doc.UpdatedBy = actorID
	doc.UpdatedAt = time.Now()
	return doc, nil
}

func (f *fakeDocumentRepo) Delete(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) error {
	delete(f.docs, slug)
	return nil
}

func (f *fakeDocumentRepo) ListPublished(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Document, error) {
	var out []*types.Document
	for _, doc := range f.docs {
		if doc.Published {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (f *fakeDocumentRepo) ListBySlugs(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slugs []string) ([]*types.Document, error) {
	var out []*types.Document
	for _, slug := range slugs {
		if doc := f.docs[slug]; doc != nil && doc.Published {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) Search(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, term string) ([]*types.Document, error) {
	f.searchCalls++
	return f.searchHits, nil
}

func (f *fakeDocumentRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug, title string, actorID uuid.UUID) error {
	if doc := f.docs[slug]; doc != nil {
		doc.Title = title
		doc.UpdatedBy = actorID
	}
	return nil
}

// fakeNavigationRepo stores one navigation row and honors the
// compare-and-swap contract. forceConflicts makes the next N Replace
// calls lose the race regardless of revision.
type fakeNavigationRepo struct {
	nav            *types.Navigation
	forceConflicts int
}

func (f *fakeNavigationRepo) seed(structure []byte, revision int) {
	f.nav = &types.Navigation{
		ID:        uuid.New(),
		Structure: datatypes.JSON(structure),
		Revision:  revision,
	}
}

func (f *fakeNavigationRepo) GetLatest(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Navigation, error) {
	if f.nav == nil {
		return nil, nil
	}
	copied := *f.nav
	return &copied, nil
}

func (f *fakeNavigationRepo) Insert(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, structure []byte, actorID uuid.UUID) (*types.Navigation, error) {
	f.nav = &types.Navigation{
		ID:        uuid.New(),
		ProjectID: projectID,
		Structure: datatypes.JSON(structure),
		Revision:  1,
		UpdatedBy: actorID,
	}
	copied := *f.nav
	return &copied, nil
}

func (f *fakeNavigationRepo) Replace(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, structure []byte, actorID uuid.UUID, baseRevision int) error {
	if f.forceConflicts > 0 {
		f.forceConflicts--
		f.nav.Revision++
		return repos.ErrNavigationConflict
	}
	if f.nav == nil || f.nav.Revision != baseRevision {
		return repos.ErrNavigationConflict
	}
	f.nav.Structure = datatypes.JSON(structure)
	f.nav.Revision++
	f.nav.UpdatedBy = actorID
	return nil
}

// fakeUserRepo / fakeUserTokenRepo back the auth flow tests.
type fakeUserRepo struct {
	byEmail map[string]*types.User
	byID    map[uuid.UUID]*types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*types.User{}, byID: map[uuid.UUID]*types.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	return f.byID[userID], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	return f.byEmail[email], nil
}

type fakeUserTokenRepo struct {
	tokens map[string]*types.UserToken
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
	return &fakeUserTokenRepo{tokens: map[string]*types.UserToken{}}
}

func (f *fakeUserTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.UserToken) (*types.UserToken, error) {
	f.tokens[token.RefreshToken] = token
	return token, nil
}

func (f *fakeUserTokenRepo) GetActive(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error) {
	token := f.tokens[refreshToken]
	if token == nil || token.RevokedAt != nil || token.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return token, nil
}

func (f *fakeUserTokenRepo) Revoke(ctx context.Context, tx *gorm.DB, refreshToken string) error {
	if token := f.tokens[refreshToken]; token != nil && token.RevokedAt == nil {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

func (f *fakeUserTokenRepo) RevokeAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	now := time.Now()
	for _, token := range f.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}
