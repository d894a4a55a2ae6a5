package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/floorcraft/floorplan-backend/internal/legacyaudit/domain"
)

// AuditRepository persists legacy_data_audit rows
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `audit_id, legacy_system_id, data_type, source_file_name, imported_by,
       import_status, record_count, failed_count, error_message, imported_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var r domain.Record
	err := row.Scan(&r.ID, &r.LegacySystemID, &r.DataType, &r.SourceFileName, &r.ImportedBy,
		&r.ImportStatus, &r.RecordCount, &r.FailedCount, &r.ErrorMessage, &r.ImportedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Insert appends an audit row. Rows are never updated.
func (r *AuditRepository) Insert(ctx context.Context, rec domain.Record) (*domain.Record, error) {
	const q = `
INSERT INTO legacy_data_audit
    (legacy_system_id, data_type, source_file_name, imported_by, import_status, record_count, failed_count, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + auditColumns

	return scanRecord(r.db.QueryRowContext(ctx, q,
		rec.LegacySystemID, rec.DataType, rec.SourceFileName, rec.ImportedBy,
		rec.ImportStatus, rec.RecordCount, rec.FailedCount, rec.ErrorMessage))
}

func (r *AuditRepository) GetByID(ctx context.Context, id int64) (*domain.Record, error) {
	const q = `SELECT ` + auditColumns + ` FROM legacy_data_audit WHERE audit_id = $1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List returns audit rows, newest first.
func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]domain.Record, error) {
	const q = `
SELECT ` + auditColumns + `
FROM legacy_data_audit
ORDER BY imported_at DESC, audit_id DESC
LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
