package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/floorcraft/floorplan-backend/internal/floorplans/domain"
	"github.com/floorcraft/floorplan-backend/internal/storage/postgres"
)

// FloorPlanRepository provides persistence operations for floor plans
type FloorPlanRepository struct {
	db *sql.DB
}

func NewFloorPlanRepository(db *sql.DB) *FloorPlanRepository {
	return &FloorPlanRepository{db: db}
}

const floorPlanColumns = `floor_plan_id, project_id, plan_name, file_path, thumbnail_path, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFloorPlan(row rowScanner) (*domain.FloorPlan, error) {
	var fp domain.FloorPlan
	if err := row.Scan(&fp.ID, &fp.ProjectID, &fp.Name, &fp.FilePath, &fp.ThumbnailPath, &fp.CreatedAt, &fp.UpdatedAt); err != nil {
		return nil, err
	}
	return &fp, nil
}

func (r *FloorPlanRepository) Create(ctx context.Context, req domain.CreateFloorPlanRequest) (*domain.FloorPlan, error) {
	const q = `
INSERT INTO floor_plans (project_id, plan_name, file_path, thumbnail_path)
VALUES ($1, $2, $3, $4)
RETURNING ` + floorPlanColumns

	fp, err := scanFloorPlan(r.db.QueryRowContext(ctx, q, req.ProjectID, req.Name, req.FilePath, req.ThumbnailPath))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, domain.ErrParentNotFound
		}
		return nil, err
	}
	return fp, nil
}

func (r *FloorPlanRepository) GetByID(ctx context.Context, id int64) (*domain.FloorPlan, error) {
	const q = `SELECT ` + floorPlanColumns + ` FROM floor_plans WHERE floor_plan_id = $1`

	fp, err := scanFloorPlan(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return fp, nil
}

// ListByProject returns a project's floor plans ordered by id.
func (r *FloorPlanRepository) ListByProject(ctx context.Context, projectID int64, limit, offset int) ([]domain.FloorPlan, error) {
	const q = `
SELECT ` + floorPlanColumns + `
FROM floor_plans
WHERE project_id = $1
ORDER BY floor_plan_id
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, q, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.FloorPlan, 0, 16)
	for rows.Next() {
		fp, err := scanFloorPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *fp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FloorPlanRepository) Update(ctx context.Context, id int64, req domain.UpdateFloorPlanRequest) (*domain.FloorPlan, error) {
	const q = `
UPDATE floor_plans
SET plan_name = COALESCE($2, plan_name),
    file_path = COALESCE($3, file_path),
    thumbnail_path = COALESCE($4, thumbnail_path),
    updated_at = NOW()
WHERE floor_plan_id = $1
RETURNING ` + floorPlanColumns

	fp, err := scanFloorPlan(r.db.QueryRowContext(ctx, q, id, req.Name, req.FilePath, req.ThumbnailPath))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return fp, nil
}

// Delete removes the floor plan; its customizations cascade.
func (r *FloorPlanRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM floor_plans WHERE floor_plan_id = $1`, id)
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
