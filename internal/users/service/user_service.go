package service

import (
	"context"
	"errors"
	"strings"

	"github.com/floorcraft/floorplan-backend/internal/users/domain"
)

// Repository is the persistence contract the user service depends on.
type Repository interface {
	Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Update(ctx context.Context, id int64, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserService handles user-related business logic
type UserService struct {
	repo Repository
}

// NewUserService creates a new user service
func NewUserService(repo Repository) *UserService {
	return &UserService{repo: repo}
}

// Create validates and stores a new user
func (s *UserService) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req)
}

// Get returns a single user
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns the user registered with email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Ensure returns the user registered with req.Email, creating it when missing.
func (s *UserService) Ensure(ctx context.Context, req domain.CreateUserRequest) (*domain.User, bool, error) {
	if err := req.Normalize(); err != nil {
		return nil, false, err
	}
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	u, err = s.repo.Create(ctx, req)
	if errors.Is(err, domain.ErrEmailTaken) {
		// lost a race with a concurrent sync
		u, err = s.repo.GetByEmail(ctx, req.Email)
		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update applies a partial update. An empty patch returns the current user unchanged.
func (s *UserService) Update(ctx context.Context, id int64, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes a user and everything it owns
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
