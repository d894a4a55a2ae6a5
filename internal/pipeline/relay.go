package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// Relay stamps events and hands them to the broker. It is the only writer
// to the customization topic.
type Relay struct {
	broker queue.Broker
	topic  string
	stats  *Stats
	log    *zap.Logger
	now    func() time.Time
}

func NewRelay(broker queue.Broker, topic string, stats *Stats, log *zap.Logger) *Relay {
	if stats == nil {
		stats = NewStats()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{broker: broker, topic: topic, stats: stats, log: log, now: time.Now}
}

// Origin describes where an event came from. EventID, when set, is used
// instead of a random id so a re-published record is deduplicated by the
// processed-events ledger.
type Origin struct {
	Source     string
	SourceFile string
	EventID    string
}

// Publish wraps m in a fresh envelope (attempt 1) and publishes it.
func (r *Relay) Publish(ctx context.Context, kind queue.Kind, origin Origin, m Mutation) (queue.Envelope, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return queue.Envelope{}, fmt.Errorf("encode mutation: %w", err)
	}

	id := origin.EventID
	if id == "" {
		id = uuid.NewString()
	}
	env := queue.Envelope{
		ID:          id,
		Kind:        kind,
		Source:      origin.Source,
		SourceFile:  origin.SourceFile,
		FloorPlanID: m.FloorPlanID,
		Attempt:     1,
		EnqueuedAt:  r.now().UTC(),
		Payload:     payload,
	}

	err = r.broker.Publish(ctx, r.topic, env)
	r.stats.RecordPublish(err)
	if err != nil {
		r.log.Error("relay publish failed", zap.String("event_id", env.ID), zap.String("kind", string(kind)), zap.Error(err))
		return queue.Envelope{}, fmt.Errorf("publish %s: %w", kind, err)
	}
	r.log.Debug("event published", zap.String("event_id", env.ID), zap.String("kind", string(kind)),
		zap.String("source", origin.Source))
	return env, nil
}

func (r *Relay) Stats() *Stats {
	return r.stats
}
