package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/internal/legacyaudit/domain"
)

type Repository interface {
	Insert(ctx context.Context, rec domain.Record) (*domain.Record, error)
	GetByID(ctx context.Context, id int64) (*domain.Record, error)
	List(ctx context.Context, limit, offset int) ([]domain.Record, error)
}

// Recorder writes one audit row per imported batch.
type Recorder struct {
	repo Repository
	log  *zap.Logger
}

func NewRecorder(repo Repository, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{repo: repo, log: log}
}

// Record appends the audit row for batch.
func (r *Recorder) Record(ctx context.Context, batch domain.Batch) (*domain.Record, error) {
	rec, err := r.repo.Insert(ctx, batch.ToRecord())
	if err != nil {
		return nil, fmt.Errorf("record legacy audit for %s: %w", batch.SourceFileName, err)
	}

	r.log.Info("legacy import recorded",
		zap.Int64("audit_id", rec.ID),
		zap.String("legacy_system_id", rec.LegacySystemID),
		zap.String("source_file", rec.SourceFileName),
		zap.String("status", rec.ImportStatus),
		zap.Int("records", rec.RecordCount),
		zap.Int("failed", rec.FailedCount),
	)
	return rec, nil
}

func (r *Recorder) Get(ctx context.Context, id int64) (*domain.Record, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *Recorder) List(ctx context.Context, limit, offset int) ([]domain.Record, error) {
	return r.repo.List(ctx, limit, offset)
}
