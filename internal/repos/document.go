package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/types"
)

const searchResultLimit = 20

// DocumentFields carries the mutable fields of an upsert. Nil pointers
// leave the stored value untouched on update.
type DocumentFields struct {
	Title       *string
	Description *string
	Blocks      datatypes.JSON
	Published   *bool
	OrderIndex  *int
}

type DocumentRepo interface {
	GetBySlug(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Document, error)
	GetPublished(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Document, error)
	Upsert(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string, fields DocumentFields, actorID uuid.UUID) (*types.Document, error)
	Delete(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) error
	ListPublished(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Document, error)
	ListBySlugs(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slugs []string) ([]*types.Document, error)
	Search(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, term string) ([]*types.Document, error)
	UpdateTitle(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug, title string, actorID uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	repoLog := baseLog.With("repo", "DocumentRepo")
	return &documentRepo{db: db, log: repoLog}
}

func (r *documentRepo) GetBySlug(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var doc types.Document
	err := transaction.WithContext(ctx).
		Where("project_id = ? AND slug = ?", projectID, slug).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) GetPublished(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var doc types.Document
	err := transaction.WithContext(ctx).
		Where("project_id = ? AND slug = ? AND published = ?", projectID, slug, true).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) Upsert(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string, fields DocumentFields, actorID uuid.UUID) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	existing, err := r.GetBySlug(ctx, transaction, projectID, slug)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		doc := &types.Document{
			ID:        uuid.New(),
			ProjectID: projectID,
			Slug:      slug,
			Title:     "Untitled",
			Blocks:    datatypes.JSON([]byte("[]")),
			Published: true,
			CreatedBy: actorID,
			UpdatedBy: actorID,
		}
		applyFields(doc, fields)
		if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
			return nil, err
		}
		return doc, nil
	}

	applyFields(existing, fields)
	existing.UpdatedBy = actorID
	if err := transaction.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func applyFields(doc *types.Document, fields DocumentFields) {
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
}

func (r *documentRepo) Delete(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND slug = ?", projectID, slug).
		Delete(&types.Document{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *documentRepo) ListPublished(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND published = ?", projectID, true).
		Order("order_index ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) ListBySlugs(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slugs []string) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Document
	if len(slugs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND published = ? AND slug IN ?", projectID, true, slugs).
		Order("order_index ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Search substring-matches published documents; a title hit ranks above
// a description hit ranks above a body hit, ties broken by title. The
// ranking lives in the CASE below and only runs against postgres;
// SearchService tests take the returned order on faith, so changes
// here need a check against a real database.
func (r *documentRepo) Search(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, term string) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return []*types.Document{}, nil
	}
	pattern := "%" + term + "%"

	var results []*types.Document
	err := transaction.WithContext(ctx).Raw(`
		SELECT *
		FROM document
		WHERE project_id = @project_id
		  AND published = TRUE
		  AND deleted_at IS NULL
		  AND (title ILIKE @pattern OR description ILIKE @pattern OR blocks::text ILIKE @pattern)
		ORDER BY
		  CASE
		    WHEN title ILIKE @pattern THEN 1
		    WHEN description ILIKE @pattern THEN 2
		    ELSE 3
		  END,
		  title ASC
		LIMIT @limit
	`, map[string]interface{}{
		"project_id": projectID,
		"pattern":    pattern,
		"limit":      searchResultLimit,
	}).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug, title string, actorID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("project_id = ? AND slug = ?", projectID, slug).
		Updates(map[string]interface{}{"title": title, "updated_by": actorID}).Error; err != nil {
		return err
	}
	return nil
}
