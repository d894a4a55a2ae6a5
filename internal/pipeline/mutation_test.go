package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custdomain "github.com/floorcraft/floorplan-backend/internal/customizations/domain"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestMutation_Validate(t *testing.T) {
	t.Run("create normalizes", func(t *testing.T) {
		m := Mutation{FloorPlanID: 2, ComponentType: strPtr(" wall ")}
		require.NoError(t, m.Validate(queue.KindCreate))
		assert.Equal(t, "wall", *m.ComponentType)
		assert.Equal(t, "{}", string(m.Properties))
	})

	t.Run("create requires floor plan", func(t *testing.T) {
		m := Mutation{ComponentType: strPtr("wall")}
		assert.ErrorIs(t, m.Validate(queue.KindCreate), custdomain.ErrInvalidInput)
	})

	t.Run("update requires id", func(t *testing.T) {
		m := Mutation{PositionX: floatPtr(1)}
		assert.ErrorIs(t, m.Validate(queue.KindUpdate), custdomain.ErrInvalidInput)
	})

	t.Run("update rejects bad properties", func(t *testing.T) {
		m := Mutation{CustomizationID: 4, Properties: json.RawMessage(`{bad`)}
		assert.ErrorIs(t, m.Validate(queue.KindUpdate), custdomain.ErrInvalidInput)
	})

	t.Run("over-long component type", func(t *testing.T) {
		long := strPtr(strings.Repeat("c", custdomain.MaxComponentTypeLen+50))
		create := Mutation{FloorPlanID: 2, ComponentType: long}
		assert.ErrorIs(t, create.Validate(queue.KindCreate), custdomain.ErrInvalidInput)
		update := Mutation{CustomizationID: 4, ComponentType: long}
		assert.ErrorIs(t, update.Validate(queue.KindUpdate), custdomain.ErrInvalidInput)
	})

	t.Run("delete requires id", func(t *testing.T) {
		m := Mutation{}
		assert.ErrorIs(t, m.Validate(queue.KindDelete), custdomain.ErrInvalidInput)
		m.CustomizationID = 9
		assert.NoError(t, m.Validate(queue.KindDelete))
	})

	t.Run("unknown kind", func(t *testing.T) {
		m := Mutation{CustomizationID: 1}
		assert.Error(t, m.Validate(queue.Kind("customization.rename")))
	})
}
