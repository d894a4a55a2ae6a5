package queue

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Recorder receives retry and dead-letter outcomes.
type Recorder interface {
	RecordRetry()
	RecordDeadLetter()
}

type nopRecorder struct{}

func (nopRecorder) RecordRetry()      {}
func (nopRecorder) RecordDeadLetter() {}

// Processor wraps a Handler with the retry policy:
//   - success acks
//   - permanent errors go straight to <topic>.dlq
//   - transient errors are republished with attempt+1 and a not_before
//     delay until MaxAttempts, then dead-lettered
//
// If the republish itself fails, the error is returned so the broker keeps
// the original message.
//
// A retry goes to the tail of the topic, so events are not kept in order
// across retries; the processed-events ledger is what makes redelivery safe.
// Handle waits out a future not_before before calling the handler. The
// memory broker only delivers retries once they are due, so there the wait
// is a no-op; the other drivers hold their consumer for the delay.
type Processor struct {
	broker  Broker
	topic   string
	policy  Policy
	handler Handler
	rec     Recorder
	log     *zap.Logger

	now  func() time.Time
	rand func() float64
}

func NewProcessor(broker Broker, topic string, policy Policy, h Handler, rec Recorder, log *zap.Logger) *Processor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		broker:  broker,
		topic:   topic,
		policy:  policy,
		handler: h,
		rec:     rec,
		log:     log,
		now:     time.Now,
		rand:    rand.Float64,
	}
}

// Run consumes the processor's topic until ctx is done.
func (p *Processor) Run(ctx context.Context, group string) error {
	p.log.Info("consumer started", zap.String("topic", p.topic), zap.String("group", group),
		zap.Int("max_attempts", p.policy.MaxAttempts))
	return p.broker.Subscribe(ctx, p.topic, group, p.Handle)
}

func (p *Processor) Handle(ctx context.Context, env Envelope) error {
	if err := p.waitUntil(ctx, env.NotBefore); err != nil {
		return err
	}
	if env.Attempt < 1 {
		env.Attempt = 1
	}

	err := p.handler(ctx, env)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	env.LastError = err.Error()
	log := p.log.With(zap.String("event_id", env.ID), zap.String("kind", string(env.Kind)),
		zap.Int("attempt", env.Attempt))

	if IsPermanent(err) || env.Attempt >= p.policy.MaxAttempts {
		if perr := p.broker.Publish(ctx, DeadLetterTopic(p.topic), env); perr != nil {
			log.Error("dead letter publish failed", zap.Error(perr))
			return fmt.Errorf("dead-letter event %s: %w", env.ID, perr)
		}
		p.rec.RecordDeadLetter()
		log.Error("event dead-lettered", zap.Bool("permanent", IsPermanent(err)), zap.Error(err))
		return nil
	}

	delay := p.policy.Backoff(env.Attempt, p.rand)
	next := env
	next.Attempt = env.Attempt + 1
	next.NotBefore = p.now().Add(delay)
	if perr := p.broker.Publish(ctx, p.topic, next); perr != nil {
		log.Error("requeue failed", zap.Error(perr))
		return fmt.Errorf("requeue event %s: %w", env.ID, perr)
	}
	p.rec.RecordRetry()
	log.Warn("event scheduled for retry", zap.Duration("delay", delay), zap.Error(err))
	return nil
}

func (p *Processor) waitUntil(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return nil
	}
	d := t.Sub(p.now())
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
