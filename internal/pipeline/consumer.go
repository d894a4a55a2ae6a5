package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	custdomain "github.com/floorcraft/floorplan-backend/internal/customizations/domain"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// Writer applies a validated mutation and records the event id in the
// processed-events ledger in the same transaction. It returns ErrDuplicate
// when the id was already applied.
type Writer interface {
	Apply(ctx context.Context, eventID string, kind queue.Kind, m Mutation) (int64, error)
	Reject(ctx context.Context, eventID string, kind queue.Kind, reason error) error
}

// Consumer is the queue handler for customization events.
type Consumer struct {
	writer Writer
	stats  *Stats
	log    *zap.Logger
}

func NewConsumer(w Writer, stats *Stats, log *zap.Logger) *Consumer {
	if stats == nil {
		stats = NewStats()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{writer: w, stats: stats, log: log}
}

func (c *Consumer) Handle(ctx context.Context, env queue.Envelope) error {
	m, err := decode(env)
	if err != nil {
		return c.reject(ctx, env, err)
	}

	id, err := c.writer.Apply(ctx, env.ID, env.Kind, m)
	switch {
	case errors.Is(err, ErrDuplicate):
		c.stats.RecordDuplicate()
		c.log.Info("duplicate event skipped", zap.String("event_id", env.ID))
		return nil
	case queue.IsPermanent(err):
		return c.reject(ctx, env, err)
	case err != nil:
		return err
	}

	c.stats.RecordProcessed()
	c.log.Info("event applied",
		zap.String("event_id", env.ID),
		zap.String("kind", string(env.Kind)),
		zap.Int64("customization_id", id),
		zap.Int("attempt", env.Attempt),
	)
	return nil
}

// reject records the failure in the ledger (best effort) and returns a
// permanent error so the processor dead-letters the event.
func (c *Consumer) reject(ctx context.Context, env queue.Envelope, cause error) error {
	if err := c.writer.Reject(ctx, env.ID, env.Kind, cause); err != nil {
		c.log.Warn("ledger reject failed", zap.String("event_id", env.ID), zap.Error(err))
	}
	if queue.IsPermanent(cause) {
		return cause
	}
	return Permanent(cause)
}

func decode(env queue.Envelope) (Mutation, error) {
	var m Mutation
	if !env.Kind.Valid() {
		return m, fmt.Errorf("unknown event kind %q", env.Kind)
	}
	dec := json.NewDecoder(bytes.NewReader(env.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return m, fmt.Errorf("%w: undecodable payload: %v", custdomain.ErrInvalidInput, err)
	}
	if err := m.Validate(env.Kind); err != nil {
		return m, err
	}
	return m, nil
}
