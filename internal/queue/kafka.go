package queue

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaBroker publishes with a shared writer keyed by floor plan id, so one
// plan's events land on one partition and keep their order. Each Subscribe
// call owns a consumer-group reader.
type KafkaBroker struct {
	brokers    []string
	writer     *kafka.Writer
	retryDelay time.Duration
	log        *zap.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafkaBroker(brokers []string, log *zap.Logger) *KafkaBroker {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaBroker{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		retryDelay: time.Second,
		log:        log,
	}
}

func (b *KafkaBroker) Publish(ctx context.Context, topic string, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	return b.publishRaw(ctx, topic, env.Key(), data, string(env.Kind))
}

func (b *KafkaBroker) publishRaw(ctx context.Context, topic string, key, data []byte, kind string) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return b.writer.WriteMessages(writeCtx, kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   data,
		Headers: []kafka.Header{{Key: "kind", Value: []byte(kind)}},
	})
}

// Subscribe commits an offset only after the handler succeeds. A failing
// message is retried in place so later messages on the partition wait for it.
func (b *KafkaBroker) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	b.track(reader)
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.log.Warn("kafka fetch failed", zap.String("topic", topic), zap.Error(err))
			b.sleep(ctx)
			continue
		}

		env, err := Decode(msg.Value)
		if err != nil {
			b.log.Warn("moving malformed message to dead letter",
				zap.String("topic", topic), zap.Int64("offset", msg.Offset), zap.Error(err))
			if perr := b.publishRaw(ctx, DeadLetterTopic(topic), msg.Key, msg.Value, ""); perr != nil {
				b.log.Error("dead letter publish failed", zap.Error(perr))
				continue
			}
		} else {
			for {
				herr := h(ctx, env)
				if herr == nil {
					break
				}
				if ctx.Err() != nil {
					return nil
				}
				b.log.Warn("handler failed, retrying in place",
					zap.String("topic", topic), zap.String("event_id", env.ID), zap.Error(herr))
				b.sleep(ctx)
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.log.Error("kafka commit failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

func (b *KafkaBroker) track(r *kafka.Reader) {
	b.mu.Lock()
	b.readers = append(b.readers, r)
	b.mu.Unlock()
}

func (b *KafkaBroker) sleep(ctx context.Context) {
	t := time.NewTimer(b.retryDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (b *KafkaBroker) Close() error {
	b.mu.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readers = nil
	b.mu.Unlock()
	return b.writer.Close()
}
