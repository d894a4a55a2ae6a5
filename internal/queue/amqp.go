package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPBroker maps each topic to a durable RabbitMQ queue on the default
// exchange. Consumers of a queue compete, so the group name is not used.
type AMQPBroker struct {
	conn     *amqp.Connection
	prefetch int
	log      *zap.Logger

	pubMu sync.Mutex
	pub   *amqp.Channel
}

func NewAMQPBroker(url string, log *zap.Logger) (*AMQPBroker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.Info("connected to rabbitmq")
	return &AMQPBroker{conn: conn, pub: ch, prefetch: 16, log: log}, nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func (b *AMQPBroker) Publish(ctx context.Context, topic string, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	return b.publishRaw(ctx, topic, env.ID, data)
}

func (b *AMQPBroker) publishRaw(ctx context.Context, topic, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	if err := declareQueue(b.pub, topic); err != nil {
		return err
	}
	return b.pub.Publish(
		"",    // exchange
		topic, // routing key (queue name)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Timestamp:    time.Now().UTC(),
			Body:         data,
		})
}

func (b *AMQPBroker) Subscribe(ctx context.Context, topic, _ string, h Handler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareQueue(ch, topic); err != nil {
		return err
	}
	if err := ch.Qos(b.prefetch, 0, false); err != nil {
		return err
	}
	deliveries, err := ch.Consume(
		topic, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			b.handle(ctx, topic, d, h)
		}
	}
}

func (b *AMQPBroker) handle(ctx context.Context, topic string, d amqp.Delivery, h Handler) {
	env, err := Decode(d.Body)
	if err != nil {
		b.log.Warn("moving malformed message to dead letter", zap.String("topic", topic), zap.Error(err))
		if perr := b.publishRaw(ctx, DeadLetterTopic(topic), d.MessageId, d.Body); perr != nil {
			b.log.Error("dead letter publish failed", zap.Error(perr))
			_ = d.Nack(false, true)
			return
		}
		_ = d.Ack(false)
		return
	}

	if err := h(ctx, env); err != nil {
		b.log.Warn("handler failed, requeueing",
			zap.String("topic", topic), zap.String("event_id", env.ID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (b *AMQPBroker) Close() error {
	var lastErr error
	if b.pub != nil {
		if err := b.pub.Close(); err != nil {
			lastErr = err
		}
	}
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
