package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorcraft/floorplan-backend/internal/floorplans/domain"
)

var floorPlanCols = []string{"floor_plan_id", "project_id", "plan_name", "file_path", "thumbnail_path", "created_at", "updated_at"}

func setupFloorPlanRepo(t *testing.T) (*FloorPlanRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFloorPlanRepository(db), mock
}

func TestFloorPlanRepository_CreateAndGet(t *testing.T) {
	repo, mock := setupFloorPlanRepo(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO floor_plans`).
		WithArgs(int64(3), "Ground", "plans/g.png", "").
		WillReturnRows(sqlmock.NewRows(floorPlanCols).AddRow(11, 3, "Ground", "plans/g.png", "", now, now))
	mock.ExpectQuery(`SELECT .+ FROM floor_plans WHERE floor_plan_id = \$1`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(floorPlanCols).AddRow(11, 3, "Ground", "plans/g.png", "", now, now))

	created, err := repo.Create(ctx, domain.CreateFloorPlanRequest{ProjectID: 3, Name: "Ground", FilePath: "plans/g.png"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorPlanRepository_Create_UnknownProject(t *testing.T) {
	repo, mock := setupFloorPlanRepo(t)

	mock.ExpectQuery(`INSERT INTO floor_plans`).
		WithArgs(int64(404), "Ground", "", "").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := repo.Create(context.Background(), domain.CreateFloorPlanRequest{ProjectID: 404, Name: "Ground"})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorPlanRepository_Update_NotFound(t *testing.T) {
	repo, mock := setupFloorPlanRepo(t)
	name := "Upper"

	mock.ExpectQuery(`UPDATE floor_plans`).
		WithArgs(int64(12), name, nil, nil).
		WillReturnRows(sqlmock.NewRows(floorPlanCols))

	_, err := repo.Update(context.Background(), 12, domain.UpdateFloorPlanRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorPlanRepository_Delete(t *testing.T) {
	repo, mock := setupFloorPlanRepo(t)

	mock.ExpectExec(`DELETE FROM floor_plans WHERE floor_plan_id = \$1`).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 11))
	require.NoError(t, mock.ExpectationsWereMet())
}
