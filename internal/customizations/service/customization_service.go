package service

import (
	"context"

	"github.com/floorcraft/floorplan-backend/internal/customizations/domain"
)

type Repository interface {
	Create(ctx context.Context, req domain.CreateCustomizationRequest) (*domain.Customization, error)
	GetByID(ctx context.Context, id int64) (*domain.Customization, error)
	ListByFloorPlan(ctx context.Context, floorPlanID int64, limit, offset int) ([]domain.Customization, error)
	Update(ctx context.Context, id int64, req domain.UpdateCustomizationRequest) (*domain.Customization, error)
	Delete(ctx context.Context, id int64) error
}

// CustomizationService handles synchronous customization edits. Bulk and
// asynchronous edits go through the ingest pipeline instead.
type CustomizationService struct {
	repo Repository
}

func NewCustomizationService(repo Repository) *CustomizationService {
	return &CustomizationService{repo: repo}
}

func (s *CustomizationService) Create(ctx context.Context, req domain.CreateCustomizationRequest) (*domain.Customization, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req)
}

func (s *CustomizationService) Get(ctx context.Context, id int64) (*domain.Customization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CustomizationService) List(ctx context.Context, floorPlanID int64, limit, offset int) ([]domain.Customization, error) {
	return s.repo.ListByFloorPlan(ctx, floorPlanID, limit, offset)
}

func (s *CustomizationService) Update(ctx context.Context, id int64, req domain.UpdateCustomizationRequest) (*domain.Customization, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, req)
}

func (s *CustomizationService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
