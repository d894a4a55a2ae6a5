package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	custdomain "github.com/floorcraft/floorplan-backend/internal/customizations/domain"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// Mutation is the payload of a customization event. Create uses FloorPlanID,
// ComponentType, Properties and positions; update and delete address an
// existing CustomizationID and only touch the fields that are set.
type Mutation struct {
	CustomizationID int64           `json:"customization_id,omitempty"`
	FloorPlanID     int64           `json:"floor_plan_id,omitempty"`
	ComponentType   *string         `json:"component_type,omitempty"`
	Properties      json.RawMessage `json:"properties,omitempty"`
	PositionX       *float64        `json:"position_x,omitempty"`
	PositionY       *float64        `json:"position_y,omitempty"`
}

var errMissingCustomizationID = errors.New("customization_id is required")

// Validate checks the mutation against its kind and normalizes it in place.
func (m *Mutation) Validate(kind queue.Kind) error {
	switch kind {
	case queue.KindCreate:
		req := m.CreateRequest()
		if err := req.Normalize(); err != nil {
			return err
		}
		m.ComponentType = &req.ComponentType
		m.Properties = req.Properties
		return nil
	case queue.KindUpdate:
		if m.CustomizationID <= 0 {
			return fmt.Errorf("%w: %v", custdomain.ErrInvalidInput, errMissingCustomizationID)
		}
		req := m.UpdateRequest()
		if err := req.Normalize(); err != nil {
			return err
		}
		m.ComponentType = req.ComponentType
		m.Properties = req.Properties
		return nil
	case queue.KindDelete:
		if m.CustomizationID <= 0 {
			return fmt.Errorf("%w: %v", custdomain.ErrInvalidInput, errMissingCustomizationID)
		}
		return nil
	}
	return fmt.Errorf("unknown event kind %q", kind)
}

func (m *Mutation) CreateRequest() custdomain.CreateCustomizationRequest {
	req := custdomain.CreateCustomizationRequest{
		FloorPlanID: m.FloorPlanID,
		Properties:  m.Properties,
	}
	if m.ComponentType != nil {
		req.ComponentType = *m.ComponentType
	}
	if m.PositionX != nil {
		req.PositionX = *m.PositionX
	}
	if m.PositionY != nil {
		req.PositionY = *m.PositionY
	}
	return req
}

func (m *Mutation) UpdateRequest() custdomain.UpdateCustomizationRequest {
	return custdomain.UpdateCustomizationRequest{
		ComponentType: m.ComponentType,
		Properties:    m.Properties,
		PositionX:     m.PositionX,
		PositionY:     m.PositionY,
	}
}
