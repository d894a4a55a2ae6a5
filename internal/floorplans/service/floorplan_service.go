package service

import (
	"context"

	"github.com/floorcraft/floorplan-backend/internal/floorplans/domain"
)

type Repository interface {
	Create(ctx context.Context, req domain.CreateFloorPlanRequest) (*domain.FloorPlan, error)
	GetByID(ctx context.Context, id int64) (*domain.FloorPlan, error)
	ListByProject(ctx context.Context, projectID int64, limit, offset int) ([]domain.FloorPlan, error)
	Update(ctx context.Context, id int64, req domain.UpdateFloorPlanRequest) (*domain.FloorPlan, error)
	Delete(ctx context.Context, id int64) error
}

// FloorPlanService handles floor plan business logic
type FloorPlanService struct {
	repo Repository
}

func NewFloorPlanService(repo Repository) *FloorPlanService {
	return &FloorPlanService{repo: repo}
}

func (s *FloorPlanService) Create(ctx context.Context, req domain.CreateFloorPlanRequest) (*domain.FloorPlan, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req)
}

func (s *FloorPlanService) Get(ctx context.Context, id int64) (*domain.FloorPlan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FloorPlanService) List(ctx context.Context, projectID int64, limit, offset int) ([]domain.FloorPlan, error) {
	return s.repo.ListByProject(ctx, projectID, limit, offset)
}

func (s *FloorPlanService) Update(ctx context.Context, id int64, req domain.UpdateFloorPlanRequest) (*domain.FloorPlan, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, req)
}

func (s *FloorPlanService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
