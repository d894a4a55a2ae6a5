package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxComponentTypeLen mirrors the component_type column width.
const MaxComponentTypeLen = 100

var (
	ErrNotFound       = errors.New("customization not found")
	ErrParentNotFound = errors.New("floor plan not found")
	ErrInvalidInput   = errors.New("invalid customization input")
)

// Customization is a component placed on a floor plan. Properties is an
// opaque JSON document owned by the client.
type Customization struct {
	ID            int64           `json:"customization_id"`
	FloorPlanID   int64           `json:"floor_plan_id"`
	ComponentType string          `json:"component_type"`
	Properties    json.RawMessage `json:"properties"`
	PositionX     float64         `json:"position_x"`
	PositionY     float64         `json:"position_y"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateCustomizationRequest struct {
	FloorPlanID   int64           `json:"floor_plan_id"`
	ComponentType string          `json:"component_type"`
	Properties    json.RawMessage `json:"properties"`
	PositionX     float64         `json:"position_x"`
	PositionY     float64         `json:"position_y"`
}

// UpdateCustomizationRequest is a partial update; nil fields are left unchanged.
type UpdateCustomizationRequest struct {
	ComponentType *string         `json:"component_type,omitempty"`
	Properties    json.RawMessage `json:"properties,omitempty"`
	PositionX     *float64        `json:"position_x,omitempty"`
	PositionY     *float64        `json:"position_y,omitempty"`
}

func (r *CreateCustomizationRequest) Normalize() error {
	r.ComponentType = strings.TrimSpace(r.ComponentType)
	if r.FloorPlanID <= 0 {
		return fmt.Errorf("%w: floor_plan_id is required", ErrInvalidInput)
	}
	if r.ComponentType == "" {
		return fmt.Errorf("%w: component_type is required", ErrInvalidInput)
	}
	if err := checkComponentType(r.ComponentType); err != nil {
		return err
	}
	props, err := NormalizeProperties(r.Properties)
	if err != nil {
		return err
	}
	r.Properties = props
	if err := checkPosition(r.PositionX, r.PositionY); err != nil {
		return err
	}
	return nil
}

func (r *UpdateCustomizationRequest) Normalize() error {
	if r.ComponentType != nil {
		ct := strings.TrimSpace(*r.ComponentType)
		if ct == "" {
			return fmt.Errorf("%w: component_type cannot be empty", ErrInvalidInput)
		}
		if err := checkComponentType(ct); err != nil {
			return err
		}
		r.ComponentType = &ct
	}
	if r.Properties != nil {
		props, err := NormalizeProperties(r.Properties)
		if err != nil {
			return err
		}
		r.Properties = props
	}
	if r.PositionX != nil {
		if err := checkPosition(*r.PositionX, 0); err != nil {
			return err
		}
	}
	if r.PositionY != nil {
		if err := checkPosition(0, *r.PositionY); err != nil {
			return err
		}
	}
	return nil
}

func (r *UpdateCustomizationRequest) Empty() bool {
	return r.ComponentType == nil && r.Properties == nil && r.PositionX == nil && r.PositionY == nil
}

// PropertiesArg returns the properties as a nullable SQL text argument.
func (r *UpdateCustomizationRequest) PropertiesArg() *string {
	if r.Properties == nil {
		return nil
	}
	s := string(r.Properties)
	return &s
}

// NormalizeProperties maps empty or null input to an empty object and
// rejects anything that is not valid JSON.
func NormalizeProperties(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: properties must be valid JSON", ErrInvalidInput)
	}
	return json.RawMessage(trimmed), nil
}

func checkComponentType(ct string) error {
	if utf8.RuneCountInString(ct) > MaxComponentTypeLen {
		return fmt.Errorf("%w: component_type exceeds %d characters", ErrInvalidInput, MaxComponentTypeLen)
	}
	return nil
}

func checkPosition(x, y float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return fmt.Errorf("%w: position must be finite", ErrInvalidInput)
	}
	return nil
}
