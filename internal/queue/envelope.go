// Package queue carries customization events between the ingest relay and
// the consumers. Brokers move Envelopes; the Processor applies the retry and
// dead-letter policy on top of any broker.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type Kind string

const (
	KindCreate Kind = "customization.create"
	KindUpdate Kind = "customization.update"
	KindDelete Kind = "customization.delete"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCreate, KindUpdate, KindDelete:
		return true
	}
	return false
}

const (
	SourceAPI      = "api"
	SourceFileDrop = "filedrop"
)

const deadLetterSuffix = ".dlq"

// DeadLetterTopic names the topic where exhausted or unprocessable events land.
func DeadLetterTopic(topic string) string {
	return topic + deadLetterSuffix
}

// Envelope is the unit moved through the queue. ID doubles as the
// idempotency key for consumers.
type Envelope struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Source      string          `json:"source"`
	SourceFile  string          `json:"source_file,omitempty"`
	FloorPlanID int64           `json:"floor_plan_id,omitempty"`
	Attempt     int             `json:"attempt"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	NotBefore   time.Time       `json:"not_before"`
	LastError   string          `json:"last_error,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// Key is the partitioning key: events for one floor plan share it.
func (e Envelope) Key() []byte {
	if e.FloorPlanID <= 0 {
		return nil
	}
	return []byte(strconv.FormatInt(e.FloorPlanID, 10))
}

var ErrMalformedEnvelope = errors.New("malformed envelope")

func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Decode parses a broker message body. Bodies without an id or kind are rejected.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.ID == "" || env.Kind == "" {
		return Envelope{}, fmt.Errorf("%w: missing id or kind", ErrMalformedEnvelope)
	}
	return env, nil
}
