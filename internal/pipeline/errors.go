package pipeline

import (
	"errors"

	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// ErrPermanent marks events that must be dead-lettered without retrying:
// validation failures, missing parents, unknown kinds, undecodable payloads.
var ErrPermanent = queue.ErrPermanent

// ErrDuplicate is returned by a Writer when the event id was already applied.
var ErrDuplicate = errors.New("event already processed")

func Permanent(err error) error {
	return queue.Permanent(err)
}
