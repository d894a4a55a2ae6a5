package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const envelopeField = "envelope"

// RedisBroker uses Redis Streams: XADD to publish, consumer groups with
// XREADGROUP/XACK to consume. Unacked entries stay in the group's pending
// list and are re-read by the same consumer.
type RedisBroker struct {
	rdb        redis.UniversalClient
	consumer   string
	block      time.Duration
	retryDelay time.Duration
	maxLen     int64
	log        *zap.Logger
}

type RedisOption func(*RedisBroker)

// WithBlock sets how long XREADGROUP waits for new entries.
func WithBlock(d time.Duration) RedisOption {
	return func(b *RedisBroker) { b.block = d }
}

// WithRetryDelay sets the pause before re-reading pending entries after a failure.
func WithRetryDelay(d time.Duration) RedisOption {
	return func(b *RedisBroker) { b.retryDelay = d }
}

func NewRedisBroker(rdb redis.UniversalClient, consumer string, log *zap.Logger, opts ...RedisOption) *RedisBroker {
	if log == nil {
		log = zap.NewNop()
	}
	b := &RedisBroker{
		rdb:        rdb,
		consumer:   consumer,
		block:      2 * time.Second,
		retryDelay: time.Second,
		maxLen:     100000,
		log:        log,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	return b.publishRaw(ctx, topic, data)
}

func (b *RedisBroker) publishRaw(ctx context.Context, topic string, data []byte) error {
	return b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{envelopeField: string(data)},
	}).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	err := b.rdb.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}

	// Start with our own pending entries so a restart picks up unacked work.
	readPending := true
	for {
		if ctx.Err() != nil {
			return nil
		}

		start := ">"
		if readPending {
			start = "0"
		}
		streams, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.consumer,
			Streams:  []string{topic, start},
			Count:    16,
			Block:    b.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				readPending = false
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			b.log.Warn("xreadgroup failed", zap.String("topic", topic), zap.Error(err))
			b.sleep(ctx, b.retryDelay)
			continue
		}

		delivered := 0
		failed := false
		for _, s := range streams {
			for _, msg := range s.Messages {
				delivered++
				if !b.handle(ctx, topic, group, msg, h) {
					failed = true
				}
			}
		}

		switch {
		case failed:
			readPending = true
			b.sleep(ctx, b.retryDelay)
		case readPending && delivered == 0:
			readPending = false
		}
	}
}

// handle reports whether the entry was acknowledged.
func (b *RedisBroker) handle(ctx context.Context, topic, group string, msg redis.XMessage, h Handler) bool {
	raw, _ := msg.Values[envelopeField].(string)
	env, err := Decode([]byte(raw))
	if err != nil {
		b.log.Warn("moving malformed entry to dead letter",
			zap.String("topic", topic), zap.String("entry_id", msg.ID), zap.Error(err))
		if perr := b.publishRaw(ctx, DeadLetterTopic(topic), []byte(raw)); perr != nil {
			b.log.Error("dead letter publish failed", zap.Error(perr))
			return false
		}
		return b.ack(ctx, topic, group, msg.ID)
	}

	if err := h(ctx, env); err != nil {
		b.log.Warn("handler failed, leaving entry pending",
			zap.String("topic", topic), zap.String("event_id", env.ID), zap.Error(err))
		return false
	}
	return b.ack(ctx, topic, group, msg.ID)
}

func (b *RedisBroker) ack(ctx context.Context, topic, group, id string) bool {
	if err := b.rdb.XAck(ctx, topic, group, id).Err(); err != nil {
		b.log.Error("xack failed", zap.String("topic", topic), zap.String("entry_id", id), zap.Error(err))
		return false
	}
	return true
}

func (b *RedisBroker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Close is a no-op: the Redis client is owned by the caller.
func (b *RedisBroker) Close() error { return nil }
