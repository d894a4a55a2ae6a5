package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorcraft/floorplan-backend/internal/users/domain"
)

type memRepo struct {
	users  map[int64]domain.User
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int64]domain.User{}}
}

func (m *memRepo) Create(_ context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == req.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	m.nextID++
	u := domain.User{ID: m.nextID, Name: req.Name, Email: req.Email, Role: req.Role}
	m.users[u.ID] = u
	return &u, nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	out := make([]domain.User, 0)
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	if offset >= len(out) {
		return []domain.User{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, id int64, req domain.UpdateUserRequest) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	m.users[id] = u
	return &u, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func TestUserService_RoundTrip(t *testing.T) {
	svc := NewUserService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateUserRequest{Name: " Ada ", Email: "ADA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", created.Name)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, domain.RoleCustomer, created.Role)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	role := "admin"
	updated, err := svc.Update(ctx, created.ID, domain.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Email, updated.Email)

	unchanged, err := svc.Update(ctx, created.ID, domain.UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Create_Validation(t *testing.T) {
	svc := NewUserService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateUserRequest{Name: "x", Email: "bad"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, domain.CreateUserRequest{Name: "a", Email: "a@x.io"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateUserRequest{Name: "b", Email: "A@x.io"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserService_Ensure(t *testing.T) {
	svc := NewUserService(newMemRepo())
	ctx := context.Background()

	u, created, err := svc.Ensure(ctx, domain.CreateUserRequest{Name: "Bo", Email: "bo@x.io"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.Ensure(ctx, domain.CreateUserRequest{Name: "Other", Email: "BO@x.io"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Bo", again.Name)

	byEmail, err := svc.GetByEmail(ctx, " Bo@X.io ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}
