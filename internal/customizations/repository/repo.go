package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/floorcraft/floorplan-backend/internal/customizations/domain"
	"github.com/floorcraft/floorplan-backend/internal/storage/postgres"
)

// CustomizationRepository provides persistence operations for customizations
type CustomizationRepository struct {
	db *sql.DB
}

func NewCustomizationRepository(db *sql.DB) *CustomizationRepository {
	return &CustomizationRepository{db: db}
}

const customizationColumns = `customization_id, floor_plan_id, component_type, properties, position_x, position_y, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomization(row rowScanner) (*domain.Customization, error) {
	var (
		c     domain.Customization
		props []byte
	)
	if err := row.Scan(&c.ID, &c.FloorPlanID, &c.ComponentType, &props, &c.PositionX, &c.PositionY, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Properties = json.RawMessage(props)
	return &c, nil
}

func (r *CustomizationRepository) Create(ctx context.Context, req domain.CreateCustomizationRequest) (*domain.Customization, error) {
	const q = `
INSERT INTO customizations (floor_plan_id, component_type, properties, position_x, position_y)
VALUES ($1, $2, $3::jsonb, $4, $5)
RETURNING ` + customizationColumns

	c, err := scanCustomization(r.db.QueryRowContext(ctx, q,
		req.FloorPlanID, req.ComponentType, string(req.Properties), req.PositionX, req.PositionY))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return c, nil
}

func (r *CustomizationRepository) GetByID(ctx context.Context, id int64) (*domain.Customization, error) {
	const q = `SELECT ` + customizationColumns + ` FROM customizations WHERE customization_id = $1`

	c, err := scanCustomization(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByFloorPlan returns a floor plan's customizations ordered by id.
func (r *CustomizationRepository) ListByFloorPlan(ctx context.Context, floorPlanID int64, limit, offset int) ([]domain.Customization, error) {
	const q = `
SELECT ` + customizationColumns + `
FROM customizations
WHERE floor_plan_id = $1
ORDER BY customization_id
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, q, floorPlanID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Customization, 0, 32)
	for rows.Next() {
		c, err := scanCustomization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CustomizationRepository) Update(ctx context.Context, id int64, req domain.UpdateCustomizationRequest) (*domain.Customization, error) {
	const q = `
UPDATE customizations
SET component_type = COALESCE($2, component_type),
    properties = COALESCE($3::jsonb, properties),
    position_x = COALESCE($4, position_x),
    position_y = COALESCE($5, position_y),
    updated_at = NOW()
WHERE customization_id = $1
RETURNING ` + customizationColumns

	c, err := scanCustomization(r.db.QueryRowContext(ctx, q,
		id, req.ComponentType, req.PropertiesArg(), req.PositionX, req.PositionY))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return c, nil
}

func (r *CustomizationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customizations WHERE customization_id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case postgres.IsForeignKeyViolation(err):
		return domain.ErrParentNotFound
	case postgres.IsDataError(err):
		return domain.ErrInvalidInput
	}
	return err
}
