package queue

import (
	"context"
	"errors"
)

// Handler processes one envelope. A nil return acknowledges the message; an
// error leaves it unacknowledged so the broker redelivers it.
type Handler func(ctx context.Context, env Envelope) error

// Broker is the durable queue contract shared by every driver.
type Broker interface {
	Publish(ctx context.Context, topic string, env Envelope) error
	// Subscribe blocks, feeding messages from topic to h, until ctx is done.
	Subscribe(ctx context.Context, topic, group string, h Handler) error
	Close() error
}

var ErrClosed = errors.New("broker closed")
