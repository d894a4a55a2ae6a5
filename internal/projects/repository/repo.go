package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/floorcraft/floorplan-backend/internal/projects/domain"
	"github.com/floorcraft/floorplan-backend/internal/storage/postgres"
)

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `project_id, user_id, project_name, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project for the given user.
func (r *ProjectRepository) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	const q = `
INSERT INTO projects (user_id, project_name, description)
VALUES ($1, $2, $3)
RETURNING ` + projectColumns

	p, err := scanProject(r.db.QueryRowContext(ctx, q, req.UserID, req.Name, req.Description))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, domain.ErrParentNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE project_id = $1`

	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByUser returns the user's projects ordered by id.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE user_id = $1
ORDER BY project_id
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the non-nil fields of req and bumps updated_at.
func (r *ProjectRepository) Update(ctx context.Context, id int64, req domain.UpdateProjectRequest) (*domain.Project, error) {
	const q = `
UPDATE projects
SET project_name = COALESCE($2, project_name),
    description = COALESCE($3, description),
    updated_at = NOW()
WHERE project_id = $1
RETURNING ` + projectColumns

	p, err := scanProject(r.db.QueryRowContext(ctx, q, id, req.Name, req.Description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes the project together with its floor plans and customizations.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE project_id = $1`, id)
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
