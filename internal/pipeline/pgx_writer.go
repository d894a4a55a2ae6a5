package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	custdomain "github.com/floorcraft/floorplan-backend/internal/customizations/domain"
	"github.com/floorcraft/floorplan-backend/internal/queue"
	"github.com/floorcraft/floorplan-backend/internal/storage/postgres"
)

const (
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusRejected   = "rejected"
)

// DB is the subset of *pgxpool.Pool used by the pipeline.
type DB interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxWriter applies customization events on a pgx pool.
type PgxWriter struct {
	db DB
}

func NewPgxWriter(db DB) *PgxWriter {
	return &PgxWriter{db: db}
}

// claimSQL inserts the ledger row. A previously rejected event may be
// claimed again (dead-letter replay); anything else conflicts.
const claimSQL = `
INSERT INTO processed_events (event_id, kind, status)
VALUES ($1, $2, 'processing')
ON CONFLICT (event_id) DO UPDATE
SET status = 'processing', error = '', processed_at = NOW()
WHERE processed_events.status = 'rejected'`

func (w *PgxWriter) Apply(ctx context.Context, eventID string, kind queue.Kind, m Mutation) (int64, error) {
	tx, err := w.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, claimSQL, eventID, string(kind))
	if err != nil {
		return 0, classify(err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrDuplicate
	}

	var id int64
	switch kind {
	case queue.KindCreate:
		id, err = createCustomization(ctx, tx, m)
	case queue.KindUpdate:
		id, err = updateCustomization(ctx, tx, m)
	case queue.KindDelete:
		id, err = deleteCustomization(ctx, tx, m)
	default:
		err = Permanent(fmt.Errorf("unknown event kind %q", kind))
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE processed_events SET customization_id = $2, status = 'processed', processed_at = NOW() WHERE event_id = $1`,
		eventID, id); err != nil {
		return 0, classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Reject marks the event as rejected unless it was already processed.
func (w *PgxWriter) Reject(ctx context.Context, eventID string, kind queue.Kind, reason error) error {
	const q = `
INSERT INTO processed_events (event_id, kind, status, error)
VALUES ($1, $2, 'rejected', $3)
ON CONFLICT (event_id) DO UPDATE
SET status = 'rejected', error = EXCLUDED.error, processed_at = NOW()
WHERE processed_events.status <> 'processed'`

	_, err := w.db.Exec(ctx, q, eventID, string(kind), reason.Error())
	return err
}

func createCustomization(ctx context.Context, tx pgx.Tx, m Mutation) (int64, error) {
	req := m.CreateRequest()
	var id int64
	err := tx.QueryRow(ctx, `
INSERT INTO customizations (floor_plan_id, component_type, properties, position_x, position_y)
VALUES ($1, $2, $3::jsonb, $4, $5)
RETURNING customization_id`,
		req.FloorPlanID, req.ComponentType, string(req.Properties), req.PositionX, req.PositionY).Scan(&id)
	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

func updateCustomization(ctx context.Context, tx pgx.Tx, m Mutation) (int64, error) {
	req := m.UpdateRequest()
	if req.Empty() {
		return m.CustomizationID, nil
	}
	var id int64
	err := tx.QueryRow(ctx, `
UPDATE customizations
SET component_type = COALESCE($2, component_type),
    properties = COALESCE($3::jsonb, properties),
    position_x = COALESCE($4, position_x),
    position_y = COALESCE($5, position_y),
    updated_at = NOW()
WHERE customization_id = $1
RETURNING customization_id`,
		m.CustomizationID, req.ComponentType, req.PropertiesArg(), req.PositionX, req.PositionY).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, Permanent(custdomain.ErrNotFound)
	}
	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// deleteCustomization treats a missing row as already deleted.
func deleteCustomization(ctx context.Context, tx pgx.Tx, m Mutation) (int64, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM customizations WHERE customization_id = $1`, m.CustomizationID); err != nil {
		return 0, classify(err)
	}
	return m.CustomizationID, nil
}

// classify turns database errors that can never succeed into permanent ones.
func classify(err error) error {
	switch {
	case postgres.IsForeignKeyViolation(err):
		return Permanent(custdomain.ErrParentNotFound)
	case postgres.IsDataError(err):
		return Permanent(fmt.Errorf("%w: %v", custdomain.ErrInvalidInput, err))
	}
	return err
}

// EventStatus is the ledger view of one event.
type EventStatus struct {
	EventID         string    `json:"event_id"`
	Kind            string    `json:"kind"`
	CustomizationID *int64    `json:"customization_id,omitempty"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	ProcessedAt     time.Time `json:"processed_at"`
}

var ErrEventNotFound = errors.New("event not processed yet")

// EventStore reads the processed-events ledger.
type EventStore struct {
	db DB
}

func NewEventStore(db DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Get(ctx context.Context, eventID string) (*EventStatus, error) {
	var st EventStatus
	err := s.db.QueryRow(ctx, `
SELECT event_id::text, kind, customization_id, status, error, processed_at
FROM processed_events
WHERE event_id = $1`, eventID).
		Scan(&st.EventID, &st.Kind, &st.CustomizationID, &st.Status, &st.Error, &st.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
