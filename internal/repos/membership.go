package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/types"
)

type ProjectMembershipRepo interface {
	GetRole(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (string, error)
	Upsert(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, role string) error
}

type projectMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectMembershipRepo(db *gorm.DB, baseLog *logger.Logger) ProjectMembershipRepo {
	repoLog := baseLog.With("repo", "ProjectMembershipRepo")
	return &projectMembershipRepo{db: db, log: repoLog}
}

// GetRole returns "" when the user holds no membership on the project.
func (r *projectMembershipRepo) GetRole(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var membership types.ProjectMembership
	err := transaction.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return membership.Role, nil
}

func (r *projectMembershipRepo) Upsert(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, role string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var membership types.ProjectMembership
	err := transaction.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		membership = types.ProjectMembership{
			ID:        uuid.New(),
			ProjectID: projectID,
			UserID:    userID,
			Role:      role,
		}
		return transaction.WithContext(ctx).Create(&membership).Error
	}
	if err != nil {
		return err
	}
	membership.Role = role
	return transaction.WithContext(ctx).Save(&membership).Error
}
