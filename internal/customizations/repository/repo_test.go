package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorcraft/floorplan-backend/internal/customizations/domain"
)

var customizationCols = []string{"customization_id", "floor_plan_id", "component_type", "properties", "position_x", "position_y", "created_at", "updated_at"}

func setupCustomizationRepo(t *testing.T) (*CustomizationRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCustomizationRepository(db), mock
}

func TestCustomizationRepository_Create(t *testing.T) {
	repo, mock := setupCustomizationRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("creates customization", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO customizations`).
			WithArgs(int64(4), "door", `{"swing":"left"}`, 1.5, 2.0).
			WillReturnRows(sqlmock.NewRows(customizationCols).
				AddRow(21, 4, "door", []byte(`{"swing":"left"}`), 1.5, 2.0, now, now))

		c, err := repo.Create(ctx, domain.CreateCustomizationRequest{
			FloorPlanID:   4,
			ComponentType: "door",
			Properties:    json.RawMessage(`{"swing":"left"}`),
			PositionX:     1.5,
			PositionY:     2.0,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(21), c.ID)
		assert.JSONEq(t, `{"swing":"left"}`, string(c.Properties))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing floor plan", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO customizations`).
			WithArgs(int64(404), "door", `{}`, 0.0, 0.0).
			WillReturnError(&pq.Error{Code: "23503"})

		_, err := repo.Create(ctx, domain.CreateCustomizationRequest{
			FloorPlanID: 404, ComponentType: "door", Properties: json.RawMessage(`{}`),
		})
		assert.ErrorIs(t, err, domain.ErrParentNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomizationRepository_Update_OnlyTargetedFields(t *testing.T) {
	repo, mock := setupCustomizationRepo(t)
	now := time.Now()
	x := 9.0

	mock.ExpectQuery(`UPDATE customizations`).
		WithArgs(int64(21), nil, nil, 9.0, nil).
		WillReturnRows(sqlmock.NewRows(customizationCols).
			AddRow(21, 4, "door", []byte(`{"swing":"left"}`), 9.0, 2.0, now, now))

	c, err := repo.Update(context.Background(), 21, domain.UpdateCustomizationRequest{PositionX: &x})
	require.NoError(t, err)
	assert.Equal(t, 9.0, c.PositionX)
	assert.Equal(t, 2.0, c.PositionY)
	assert.Equal(t, "door", c.ComponentType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomizationRepository_GetAfterDelete(t *testing.T) {
	repo, mock := setupCustomizationRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM customizations WHERE customization_id = \$1`).
		WithArgs(int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM customizations WHERE customization_id = \$1`).
		WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows(customizationCols))

	require.NoError(t, repo.Delete(ctx, 21))
	_, err := repo.GetByID(ctx, 21)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomizationRepository_ListByFloorPlan(t *testing.T) {
	repo, mock := setupCustomizationRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM customizations\s+WHERE floor_plan_id = \$1`).
		WithArgs(int64(4), 50, 0).
		WillReturnRows(sqlmock.NewRows(customizationCols).
			AddRow(1, 4, "wall", []byte(`{}`), 0.0, 0.0, now, now).
			AddRow(2, 4, "window", []byte(`{"w":1}`), 3.0, 0.0, now, now))

	items, err := repo.ListByFloorPlan(context.Background(), 4, 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "window", items[1].ComponentType)
	require.NoError(t, mock.ExpectationsWereMet())
}
