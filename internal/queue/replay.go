package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ReplayDeadLetters moves events from <topic>.dlq back onto topic with a
// fresh attempt budget until ctx is done. It returns how many were moved.
// last_error is kept so the consumer log shows why the event was parked.
func ReplayDeadLetters(ctx context.Context, b Broker, topic, group string, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var moved atomic.Int64

	err := b.Subscribe(ctx, DeadLetterTopic(topic), group, func(ctx context.Context, env Envelope) error {
		env.Attempt = 1
		env.NotBefore = time.Time{}
		if err := b.Publish(ctx, topic, env); err != nil {
			return fmt.Errorf("replay %s: %w", env.ID, err)
		}
		moved.Add(1)
		log.Info("dead letter replayed", zap.String("event_id", env.ID), zap.String("last_error", env.LastError))
		return nil
	})
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		err = nil
	}
	return int(moved.Load()), err
}
