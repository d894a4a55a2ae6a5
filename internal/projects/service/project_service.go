package service

import (
	"context"

	"github.com/floorcraft/floorplan-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error)
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Project, error)
	Update(ctx context.Context, id int64, req domain.UpdateProjectRequest) (*domain.Project, error)
	Delete(ctx context.Context, id int64) error
}

// ProjectService handles project-related business logic
type ProjectService struct {
	repo Repository
}

// NewProjectService creates a new project service
func NewProjectService(repo Repository) *ProjectService {
	return &ProjectService{
		repo: repo,
	}
}

// Create creates a new project
func (s *ProjectService) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req)
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the projects owned by a user
func (s *ProjectService) List(ctx context.Context, userID int64, limit, offset int) ([]domain.Project, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *ProjectService) Update(ctx context.Context, id int64, req domain.UpdateProjectRequest) (*domain.Project, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes a project
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
