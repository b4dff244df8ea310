package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/types"
)

// ErrNavigationConflict means a Replace presented a stale revision:
// another writer swapped the tree since the caller read it.
var ErrNavigationConflict = errors.New("navigation revision conflict")

type NavigationRepo interface {
	GetLatest(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Navigation, error)
	Insert(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, structure []byte, actorID uuid.UUID) (*types.Navigation, error)
	Replace(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, structure []byte, actorID uuid.UUID, baseRevision int) error
}

type navigationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNavigationRepo(db *gorm.DB, baseLog *logger.Logger) NavigationRepo {
	repoLog := baseLog.With("repo", "NavigationRepo")
	return &navigationRepo{db: db, log: repoLog}
}

// GetLatest keeps the most-recently-updated read shape so duplicate
// rows written before the uniqueness constraint still resolve to one
// deterministic winner.
func (r *navigationRepo) GetLatest(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Navigation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var nav types.Navigation
	err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("updated_at DESC").
		First(&nav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &nav, nil
}

func (r *navigationRepo) Insert(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, structure []byte, actorID uuid.UUID) (*types.Navigation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	nav := &types.Navigation{
		ID:        uuid.New(),
		ProjectID: projectID,
		Structure: datatypes.JSON(structure),
		Revision:  1,
		UpdatedBy: actorID,
	}
	if err := transaction.WithContext(ctx).Create(nav).Error; err != nil {
		return nil, err
	}
	return nav, nil
}

// Replace is the sole update primitive for tree shape: a full-structure
// compare-and-swap against the revision the writer read.
func (r *navigationRepo) Replace(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, structure []byte, actorID uuid.UUID, baseRevision int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.Navigation{}).
		Where("project_id = ? AND revision = ?", projectID, baseRevision).
		Updates(map[string]interface{}{
			"structure":  datatypes.JSON(structure),
			"revision":   gorm.Expr("revision + 1"),
			"updated_by": actorID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNavigationConflict
	}
	return nil
}
