package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custdomain "github.com/floorcraft/floorplan-backend/internal/customizations/domain"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// memWriter mimics the ledger semantics of PgxWriter.
type memWriter struct {
	mu       sync.Mutex
	ledger   map[string]string
	nextID   int64
	failNext atomic.Int64
	applyErr error
}

func newMemWriter() *memWriter {
	return &memWriter{ledger: map[string]string{}}
}

func (w *memWriter) Apply(_ context.Context, eventID string, kind queue.Kind, m Mutation) (int64, error) {
	if w.failNext.Load() > 0 {
		w.failNext.Add(-1)
		return 0, errors.New("connection reset")
	}
	if w.applyErr != nil {
		return 0, w.applyErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if st, ok := w.ledger[eventID]; ok && st != StatusRejected {
		return 0, ErrDuplicate
	}
	w.ledger[eventID] = StatusProcessed
	if kind == queue.KindCreate {
		w.nextID++
		return w.nextID, nil
	}
	return m.CustomizationID, nil
}

func (w *memWriter) Reject(_ context.Context, eventID string, _ queue.Kind, _ error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ledger[eventID] != StatusProcessed {
		w.ledger[eventID] = StatusRejected
	}
	return nil
}

func (w *memWriter) status(id string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger[id]
}

func createEnvelope(t *testing.T, id string) queue.Envelope {
	t.Helper()
	payload, err := json.Marshal(Mutation{FloorPlanID: 1, ComponentType: strPtr("door")})
	require.NoError(t, err)
	return queue.Envelope{ID: id, Kind: queue.KindCreate, Attempt: 1, Payload: payload}
}

func TestConsumer_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("applies then skips duplicate", func(t *testing.T) {
		w := newMemWriter()
		stats := NewStats()
		c := NewConsumer(w, stats, nil)
		env := createEnvelope(t, "11111111-1111-1111-1111-111111111111")

		require.NoError(t, c.Handle(ctx, env))
		require.NoError(t, c.Handle(ctx, env))

		snap := stats.Snapshot()
		assert.Equal(t, int64(1), snap.Processed)
		assert.Equal(t, int64(1), snap.Duplicates)
	})

	t.Run("unknown kind is permanent", func(t *testing.T) {
		w := newMemWriter()
		c := NewConsumer(w, nil, nil)
		env := createEnvelope(t, "e2")
		env.Kind = "customization.rename"

		err := c.Handle(ctx, env)
		assert.ErrorIs(t, err, ErrPermanent)
		assert.Equal(t, StatusRejected, w.status("e2"))
	})

	t.Run("undecodable payload is permanent", func(t *testing.T) {
		c := NewConsumer(newMemWriter(), nil, nil)
		env := queue.Envelope{ID: "e3", Kind: queue.KindCreate, Payload: json.RawMessage(`[1,2]`)}
		assert.ErrorIs(t, c.Handle(ctx, env), ErrPermanent)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		c := NewConsumer(newMemWriter(), nil, nil)
		env := queue.Envelope{ID: "e4", Kind: queue.KindDelete, Payload: json.RawMessage(`{"customization_id":1,"colour":"red"}`)}
		assert.ErrorIs(t, c.Handle(ctx, env), ErrPermanent)
	})

	t.Run("missing parent is permanent", func(t *testing.T) {
		w := newMemWriter()
		w.applyErr = Permanent(custdomain.ErrParentNotFound)
		c := NewConsumer(w, nil, nil)

		err := c.Handle(ctx, createEnvelope(t, "e5"))
		assert.ErrorIs(t, err, ErrPermanent)
		assert.ErrorIs(t, err, custdomain.ErrParentNotFound)
	})

	t.Run("transient errors pass through", func(t *testing.T) {
		w := newMemWriter()
		w.failNext.Store(1)
		c := NewConsumer(w, nil, nil)

		err := c.Handle(ctx, createEnvelope(t, "e6"))
		require.Error(t, err)
		assert.False(t, queue.IsPermanent(err))
	})
}

func TestPipeline_EndToEnd(t *testing.T) {
	const topic = "floorplan.customizations"
	broker := queue.NewMemoryBroker(64, nil)
	stats := NewStats()
	w := newMemWriter()
	w.failNext.Store(2)

	relay := NewRelay(broker, topic, stats, nil)
	consumer := NewConsumer(w, stats, nil)
	proc := queue.NewProcessor(broker, topic, queue.Policy{
		MaxAttempts: 5,
		BackoffBase: time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
	}, consumer.Handle, stats, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = proc.Run(ctx, "g") }()

	good, err := relay.Publish(ctx, queue.KindCreate, Origin{Source: queue.SourceAPI},
		Mutation{FloorPlanID: 3, ComponentType: strPtr("window")})
	require.NoError(t, err)
	assert.Equal(t, 1, good.Attempt)
	assert.NotEmpty(t, good.ID)

	_, err = relay.Publish(ctx, queue.KindUpdate, Origin{Source: queue.SourceAPI}, Mutation{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := stats.Snapshot()
		return s.Processed == 1 && s.DeadLettered == 1
	}, 2*time.Second, 5*time.Millisecond)

	s := stats.Snapshot()
	assert.Equal(t, int64(2), s.Published)
	assert.Equal(t, int64(2), s.Retried)
	assert.Equal(t, StatusProcessed, w.status(good.ID))
	assert.Equal(t, 1, broker.Pending(queue.DeadLetterTopic(topic)))
}
