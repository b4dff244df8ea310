package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/types"
)

type ProjectService interface {
	ResolveBySlug(ctx context.Context, slug string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	RoleFor(ctx context.Context, projectID, userID uuid.UUID) (string, error)
	RequireEditor(ctx context.Context, projectID, userID uuid.UUID) error
}

type projectService struct {
	db          *gorm.DB
	projects    repos.ProjectRepo
	memberships repos.ProjectMembershipRepo
	log         *logger.Logger
}

func NewProjectService(db *gorm.DB, projects repos.ProjectRepo, memberships repos.ProjectMembershipRepo, baseLog *logger.Logger) ProjectService {
	serviceLog := baseLog.With("service", "ProjectService")
	return &projectService{db: db, projects: projects, memberships: memberships, log: serviceLog}
}

func (s *projectService) ResolveBySlug(ctx context.Context, slug string) (*types.Project, error) {
	project, err := s.projects.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, fmt.Errorf("resolve project %q: %w", slug, err)
	}
	if project == nil {
		return nil, apierr.NotFound(fmt.Errorf("project %q not found", slug))
	}
	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context) ([]*types.Project, error) {
	projects, err := s.projects.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *projectService) RoleFor(ctx context.Context, projectID, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", nil
	}
	role, err := s.memberships.GetRole(ctx, nil, projectID, userID)
	if err != nil {
		return "", fmt.Errorf("read membership: %w", err)
	}
	return role, nil
}

// RequireEditor gates every content mutation: no user means 401, a user
// without editor or admin on the project means 403.
func (s *projectService) RequireEditor(ctx context.Context, projectID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apierr.Unauthorized(fmt.Errorf("authentication required"))
	}
	role, err := s.RoleFor(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !types.CanEdit(role) {
		return apierr.Forbidden(fmt.Errorf("editor role required"))
	}
	return nil
}
