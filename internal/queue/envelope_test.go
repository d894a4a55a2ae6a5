package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	env := Envelope{ID: "e1", Kind: KindCreate, FloorPlanID: 12, Attempt: 1, Payload: json.RawMessage(`{"a":1}`)}
	data, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, []byte("12"), got.Key())
	assert.JSONEq(t, `{"a":1}`, string(got.Payload))

	_, err = Decode([]byte(`{"kind":"customization.create"}`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, KindDelete.Valid())
	assert.False(t, Kind("customization.rename").Valid())
}

func TestDeadLetterTopic(t *testing.T) {
	assert.Equal(t, "floorplan.customizations.dlq", DeadLetterTopic("floorplan.customizations"))
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))

	base := assert.AnError
	err := Permanent(base)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}
