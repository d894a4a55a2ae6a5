package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryBroker is a process-local broker for tests and single-binary
// development. Consumer groups are ignored: every subscriber of a topic
// competes for the same messages.
//
// Producers block while a topic holds buffer messages. Anything published
// from inside a subscriber's handler (retries, dead letters, replays) and
// every nack goes to an unbounded side list instead, so a consumer never
// waits on its own topic. Retries with a future not_before are parked on a
// timer and only become visible once due.
type MemoryBroker struct {
	mu     sync.Mutex
	topics map[string]*memTopic
	timers map[*time.Timer]struct{}
	buffer int
	closed bool
	log    *zap.Logger
}

type memTopic struct {
	ch   chan []byte
	wake chan struct{}

	mu      sync.Mutex
	held    [][]byte
	delayed int
}

func (t *memTopic) hold(data []byte) {
	t.mu.Lock()
	t.held = append(t.held, data)
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *memTopic) pop() ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.held) == 0 {
		return nil, false
	}
	data := t.held[0]
	t.held = t.held[1:]
	return data, true
}

func (t *memTopic) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ch) + len(t.held) + t.delayed
}

type inHandlerKey struct{}

func NewMemoryBroker(buffer int, log *zap.Logger) *MemoryBroker {
	if buffer <= 0 {
		buffer = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryBroker{
		topics: make(map[string]*memTopic),
		timers: make(map[*time.Timer]struct{}),
		buffer: buffer,
		log:    log,
	}
}

func (b *MemoryBroker) topic(name string) (*memTopic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	t, ok := b.topics[name]
	if !ok {
		t = &memTopic{ch: make(chan []byte, b.buffer), wake: make(chan struct{}, 1)}
		b.topics[name] = t
	}
	return t, nil
}

// inHandler reports whether ctx belongs to one of this broker's subscribers.
func (b *MemoryBroker) inHandler(ctx context.Context) bool {
	owner, _ := ctx.Value(inHandlerKey{}).(*MemoryBroker)
	return owner == b
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	if !b.inHandler(ctx) {
		return b.publishRaw(ctx, topic, data)
	}
	t, err := b.topic(topic)
	if err != nil {
		return err
	}
	if d := time.Until(env.NotBefore); d > 0 {
		b.holdAfter(t, data, d)
		return nil
	}
	t.hold(data)
	return nil
}

func (b *MemoryBroker) holdAfter(t *memTopic, data []byte, d time.Duration) {
	t.mu.Lock()
	t.delayed++
	t.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		b.mu.Lock()
		delete(b.timers, timer)
		b.mu.Unlock()

		t.mu.Lock()
		t.delayed--
		t.mu.Unlock()
		t.hold(data)
	})
	b.timers[timer] = struct{}{}
}

func (b *MemoryBroker) publishRaw(ctx context.Context, topic string, data []byte) error {
	t, err := b.topic(topic)
	if err != nil {
		return err
	}
	select {
	case t.ch <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic, _ string, h Handler) error {
	t, err := b.topic(topic)
	if err != nil {
		return err
	}
	hctx := context.WithValue(ctx, inHandlerKey{}, b)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if data, ok := t.pop(); ok {
			b.deliver(hctx, topic, t, data, h)
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.wake:
		case data := <-t.ch:
			b.deliver(hctx, topic, t, data, h)
		}
	}
}

func (b *MemoryBroker) deliver(ctx context.Context, topic string, t *memTopic, data []byte, h Handler) {
	env, err := Decode(data)
	if err != nil {
		b.log.Warn("dropping malformed message to dead letter", zap.String("topic", topic), zap.Error(err))
		dlq, derr := b.topic(DeadLetterTopic(topic))
		if derr != nil {
			b.log.Error("dead letter publish failed", zap.Error(derr))
			return
		}
		dlq.hold(data)
		return
	}
	if err := h(ctx, env); err != nil {
		// nack
		t.hold(data)
	}
}

// Pending reports how many messages are waiting on topic, including
// retries whose not_before has not passed yet.
func (b *MemoryBroker) Pending(topic string) int {
	b.mu.Lock()
	t, ok := b.topics[topic]
	b.mu.Unlock()
	if !ok {
		return 0
	}
	return t.pending()
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for timer := range b.timers {
		timer.Stop()
	}
	clear(b.timers)
	return nil
}
