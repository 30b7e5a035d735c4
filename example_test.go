package tune

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeConversion(t *testing.T) {
	loss, err := Gain(2.5).LossValue()
	require.NoError(t, err)
	assert.Equal(t, -2.5, loss)

	loss, err = Loss(2.5).LossValue()
	require.NoError(t, err)
	assert.Equal(t, 2.5, loss)

	gain, err := Loss(3).GainValue()
	require.NoError(t, err)
	assert.Equal(t, -3, gain)

	_, err = Outcome{}.LossValue()
	assert.ErrorIs(t, err, ErrInvalidExample)
}

// Negation is an involution over scalars and nested sequences.
func TestNegateObjectiveInvolution(t *testing.T) {
	cases := []any{
		2.5,
		-7,
		0.0,
		[]any{1.0, -2.0, 3.5},
		[]any{1.0, []any{-2, 3}, []any{}},
	}

	for _, x := range cases {
		once, err := NegateObjective(x)
		require.NoError(t, err)

		twice, err := NegateObjective(once)
		require.NoError(t, err)

		assert.Equal(t, unwrapScalar(x), twice, "input %v", x)
	}

	_, err := NegateObjective("oops")
	assert.ErrorIs(t, err, ErrInvalidExample)
}

func TestExampleJSONRoundTrip(t *testing.T) {
	in := Example{
		Values:  map[string]any{"x": 0.3, "mode": "fast", "n": 7},
		Outcome: Gain(12.5),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Example

	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 0.3, out.Values["x"])
	assert.Equal(t, "fast", out.Values["mode"])
	assert.Equal(t, 7, out.Values["n"]) // integers survive the round trip
	assert.True(t, out.Outcome.IsGain())
	assert.Equal(t, 12.5, out.Outcome.Value())
}

func TestExampleJSONWireShapes(t *testing.T) {
	var ex Example

	require.NoError(t, json.Unmarshal([]byte(`{"values": {"x": 1}, "loss": -2}`), &ex))

	loss, err := ex.Outcome.LossValue()
	require.NoError(t, err)
	assert.Equal(t, -2, loss)

	// Vector-valued objectives.
	require.NoError(t, json.Unmarshal([]byte(`{"values": {}, "gain": [1, 2.5]}`), &ex))

	loss, err = ex.Outcome.LossValue()
	require.NoError(t, err)
	assert.Equal(t, []any{-1, -2.5}, loss)
}

func TestExampleJSONRejectsInvalidShapes(t *testing.T) {
	cases := []string{
		`{"values": {"x": 1}}`,                        // neither gain nor loss
		`{"values": {"x": 1}, "gain": 1, "loss": -1}`, // both
		`{"gain": 1}`,                                 // missing values
		`{"values": 42, "gain": 1}`,                   // values not an object
	}

	for _, raw := range cases {
		var ex Example

		err := json.Unmarshal([]byte(raw), &ex)
		assert.ErrorIs(t, err, ErrInvalidExample, "payload %s", raw)
	}
}

func TestExampleValidate(t *testing.T) {
	assert.ErrorIs(t, Example{}.Validate(), ErrInvalidExample)

	assert.ErrorIs(t, Example{Values: map[string]any{}}.Validate(), ErrInvalidExample)

	assert.NoError(t, Example{
		Values:  map[string]any{},
		Outcome: Loss(1.0),
	}.Validate())
}

func TestExampleMarshalRejectsUnsetOutcome(t *testing.T) {
	_, err := json.Marshal(Example{Values: map[string]any{"x": 1}})

	assert.ErrorIs(t, err, ErrInvalidExample)
}
