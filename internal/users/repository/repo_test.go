package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorcraft/floorplan-backend/internal/users/domain"
)

func setupUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

var userCols = []string{"user_id", "name", "email", "role", "created_at"}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := setupUserRepo(t)
	ctx := context.Background()

	t.Run("creates user", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Ada", "ada@example.com", "designer").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Ada", "ada@example.com", "designer", now))

		u, err := repo.Create(ctx, domain.CreateUserRequest{Name: "Ada", Email: "ada@example.com", Role: "designer"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, "Ada", u.Name)
		assert.Equal(t, "ada@example.com", u.Email)
		assert.Equal(t, "designer", u.Role)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps duplicate email", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Ada", "ada@example.com", "customer").
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := repo.Create(ctx, domain.CreateUserRequest{Name: "Ada", Email: "ada@example.com", Role: "customer"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	repo, mock := setupUserRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT user_id, name, email, role, created_at FROM users WHERE user_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "Lin", "lin@example.com", "customer", time.Now()))

	u, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	mock.ExpectQuery(`SELECT user_id`).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(ctx, 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	repo, mock := setupUserRepo(t)

	mock.ExpectQuery(`SELECT user_id, name, email, role, created_at FROM users ORDER BY user_id`).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "A", "a@x.io", "customer", time.Now()).
			AddRow(2, "B", "b@x.io", "admin", time.Now()))

	users, err := repo.List(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "B", users[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	repo, mock := setupUserRepo(t)
	ctx := context.Background()

	t.Run("updates only provided fields", func(t *testing.T) {
		name := "Ada L."
		mock.ExpectQuery(`UPDATE users`).
			WithArgs(int64(1), name, nil, nil).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, name, "ada@example.com", "designer", time.Now()))

		u, err := repo.Update(ctx, 1, domain.UpdateUserRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, u.Name)
		assert.Equal(t, "ada@example.com", u.Email)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		role := "admin"
		mock.ExpectQuery(`UPDATE users`).
			WithArgs(int64(99), nil, nil, role).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, 99, domain.UpdateUserRequest{Role: &role})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Delete(t *testing.T) {
	repo, mock := setupUserRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM users WHERE user_id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(ctx, 1))

	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, 2), domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
