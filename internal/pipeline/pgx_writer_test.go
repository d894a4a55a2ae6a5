package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custdomain "github.com/floorcraft/floorplan-backend/internal/customizations/domain"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// stmt is one expected statement: the SQL must contain match, and the
// statement answers with tag (Exec) or row/err (QueryRow).
type stmt struct {
	match string
	tag   string
	row   []any
	err   error
}

// scriptedDB replays stmts in order for both the pool and its transactions.
type scriptedDB struct {
	t          *testing.T
	script     []stmt
	seen       []string
	args       [][]any
	beginErr   error
	committed  bool
	rolledBack bool
}

func newScriptedDB(t *testing.T, script ...stmt) *scriptedDB {
	return &scriptedDB{t: t, script: script}
}

func (d *scriptedDB) next(sql string, args []any) stmt {
	d.t.Helper()
	require.NotEmpty(d.t, d.script, "unexpected statement: %s", sql)
	s := d.script[0]
	d.script = d.script[1:]
	require.Contains(d.t, sql, s.match)
	d.seen = append(d.seen, sql)
	d.args = append(d.args, args)
	return s
}

func (d *scriptedDB) done() {
	d.t.Helper()
	assert.Empty(d.t, d.script, "statements not executed")
}

func (d *scriptedDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return &scriptedTx{db: d}, nil
}

func (d *scriptedDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s := d.next(sql, args)
	return pgconn.NewCommandTag(s.tag), s.err
}

func (d *scriptedDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	s := d.next(sql, args)
	return scriptedRow{vals: s.row, err: s.err}
}

// scriptedTx implements the parts of pgx.Tx the writer touches.
type scriptedTx struct {
	pgx.Tx
	db *scriptedDB
}

func (tx *scriptedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *scriptedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.db.QueryRow(ctx, sql, args...)
}

func (tx *scriptedTx) Commit(context.Context) error {
	tx.db.committed = true
	return nil
}

func (tx *scriptedTx) Rollback(context.Context) error {
	if !tx.db.committed {
		tx.db.rolledBack = true
	}
	return nil
}

type scriptedRow struct {
	vals []any
	err  error
}

func (r scriptedRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return errors.New("scan: column count mismatch")
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r.vals[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

const testEventID = "5f2b8e1c-7a44-4d0e-9b7a-2c1d3e4f5a6b"

func claimed() stmt {
	return stmt{match: "INSERT INTO processed_events", tag: "INSERT 0 1"}
}

func markProcessed() stmt {
	return stmt{match: "status = 'processed'", tag: "UPDATE 1"}
}

func TestClaimSQL_OnlyReclaimsRejected(t *testing.T) {
	assert.Contains(t, claimSQL, "ON CONFLICT (event_id) DO UPDATE")
	assert.Contains(t, claimSQL, "WHERE processed_events.status = 'rejected'")
}

func TestPgxWriter_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("create commits and records id", func(t *testing.T) {
		db := newScriptedDB(t,
			claimed(),
			stmt{match: "INSERT INTO customizations", row: []any{int64(42)}},
			markProcessed(),
		)
		w := NewPgxWriter(db)

		id, err := w.Apply(ctx, testEventID, queue.KindCreate,
			Mutation{FloorPlanID: 7, ComponentType: strPtr("door")})
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.True(t, db.committed)
		assert.Equal(t, []any{testEventID, string(queue.KindCreate)}, db.args[0])
		assert.Equal(t, []any{testEventID, int64(42)}, db.args[2])
		db.done()
	})

	t.Run("conflicting claim is a duplicate", func(t *testing.T) {
		db := newScriptedDB(t, stmt{match: "ON CONFLICT (event_id)", tag: "INSERT 0 0"})
		w := NewPgxWriter(db)

		_, err := w.Apply(ctx, testEventID, queue.KindCreate,
			Mutation{FloorPlanID: 7, ComponentType: strPtr("door")})
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.False(t, db.committed)
		assert.True(t, db.rolledBack)
		db.done()
	})

	t.Run("update of missing row is permanent", func(t *testing.T) {
		db := newScriptedDB(t,
			claimed(),
			stmt{match: "UPDATE customizations", err: pgx.ErrNoRows},
		)
		w := NewPgxWriter(db)

		_, err := w.Apply(ctx, testEventID, queue.KindUpdate,
			Mutation{CustomizationID: 9, ComponentType: strPtr("wall")})
		assert.ErrorIs(t, err, ErrPermanent)
		assert.ErrorIs(t, err, custdomain.ErrNotFound)
		assert.True(t, db.rolledBack)
		db.done()
	})

	t.Run("empty update only touches the ledger", func(t *testing.T) {
		db := newScriptedDB(t, claimed(), markProcessed())
		w := NewPgxWriter(db)

		id, err := w.Apply(ctx, testEventID, queue.KindUpdate, Mutation{CustomizationID: 9})
		require.NoError(t, err)
		assert.Equal(t, int64(9), id)
		db.done()
	})

	t.Run("delete of missing row succeeds", func(t *testing.T) {
		db := newScriptedDB(t,
			claimed(),
			stmt{match: "DELETE FROM customizations", tag: "DELETE 0"},
			markProcessed(),
		)
		w := NewPgxWriter(db)

		id, err := w.Apply(ctx, testEventID, queue.KindDelete, Mutation{CustomizationID: 11})
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
		assert.True(t, db.committed)
		db.done()
	})

	t.Run("database errors are classified", func(t *testing.T) {
		cases := []struct {
			name      string
			err       error
			permanent bool
			target    error
		}{
			{name: "missing floor plan", err: &pgconn.PgError{Code: "23503"}, permanent: true, target: custdomain.ErrParentNotFound},
			{name: "value too long", err: &pgconn.PgError{Code: "22001"}, permanent: true, target: custdomain.ErrInvalidInput},
			{name: "untranslatable character", err: &pgconn.PgError{Code: "22P05"}, permanent: true, target: custdomain.ErrInvalidInput},
			{name: "numeric out of range", err: &pgconn.PgError{Code: "22003"}, permanent: true, target: custdomain.ErrInvalidInput},
			{name: "not null", err: &pgconn.PgError{Code: "23502"}, permanent: true, target: custdomain.ErrInvalidInput},
			{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}},
			{name: "connection reset", err: errors.New("connection reset by peer")},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				db := newScriptedDB(t,
					claimed(),
					stmt{match: "INSERT INTO customizations", err: tc.err},
				)
				w := NewPgxWriter(db)

				_, err := w.Apply(ctx, testEventID, queue.KindCreate,
					Mutation{FloorPlanID: 7, ComponentType: strPtr("door")})
				require.Error(t, err)
				assert.Equal(t, tc.permanent, queue.IsPermanent(err))
				if tc.target != nil {
					assert.ErrorIs(t, err, tc.target)
				}
				assert.False(t, db.committed)
			})
		}
	})

	t.Run("begin failure is transient", func(t *testing.T) {
		db := newScriptedDB(t)
		db.beginErr = errors.New("pool closed")
		w := NewPgxWriter(db)

		_, err := w.Apply(ctx, testEventID, queue.KindDelete, Mutation{CustomizationID: 1})
		require.Error(t, err)
		assert.False(t, queue.IsPermanent(err))
	})
}

func TestPgxWriter_Reject(t *testing.T) {
	db := newScriptedDB(t, stmt{match: "WHERE processed_events.status <> 'processed'", tag: "INSERT 0 1"})
	w := NewPgxWriter(db)

	err := w.Reject(context.Background(), testEventID, queue.KindUpdate, errors.New("bad payload"))
	require.NoError(t, err)
	require.Len(t, db.args, 1)
	assert.Equal(t, []any{testEventID, string(queue.KindUpdate), "bad payload"}, db.args[0])
	assert.Contains(t, db.seen[0], "'rejected'")
	db.done()
}

func TestConsumer_OverlongValueIsRejected(t *testing.T) {
	db := newScriptedDB(t,
		claimed(),
		stmt{match: "INSERT INTO customizations", err: &pgconn.PgError{Code: "22001"}},
		stmt{match: "'rejected'", tag: "INSERT 0 1"},
	)
	stats := NewStats()
	c := NewConsumer(NewPgxWriter(db), stats, nil)

	err := c.Handle(context.Background(), createEnvelope(t, testEventID))
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, int64(0), stats.Snapshot().Processed)
	db.done()
}

func TestEventStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		id := int64(42)
		db := newScriptedDB(t, stmt{
			match: "FROM processed_events",
			row:   []any{testEventID, string(queue.KindCreate), &id, StatusProcessed, "", at},
		})

		st, err := NewEventStore(db).Get(ctx, testEventID)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessed, st.Status)
		require.NotNil(t, st.CustomizationID)
		assert.Equal(t, int64(42), *st.CustomizationID)
		assert.Equal(t, at, st.ProcessedAt)
	})

	t.Run("rejected without customization", func(t *testing.T) {
		db := newScriptedDB(t, stmt{
			match: "FROM processed_events",
			row:   []any{testEventID, string(queue.KindUpdate), nil, StatusRejected, "customization not found", time.Now()},
		})

		st, err := NewEventStore(db).Get(ctx, testEventID)
		require.NoError(t, err)
		assert.Nil(t, st.CustomizationID)
		assert.Equal(t, "customization not found", st.Error)
	})

	t.Run("not found", func(t *testing.T) {
		db := newScriptedDB(t, stmt{match: "FROM processed_events", err: pgx.ErrNoRows})

		_, err := NewEventStore(db).Get(ctx, testEventID)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}
