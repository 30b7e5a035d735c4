package tune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRandom(t *testing.T, opts Options) Backend {
	t.Helper()

	b, err := NewRandomBackend(nil, nil, opts, nil)
	require.NoError(t, err)

	return b
}

func TestRandomBackendDrawsWithinDeclaredRanges(t *testing.T) {
	b := newRandom(t, Options{"seed": 7})

	for i := 0; i < 50; i++ {
		v, err := b.Param("x", Uniform, []any{2.0, 5.0}, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.(float64), 2.0)
		assert.Less(t, v.(float64), 5.0)

		v, err = b.Param("n", Randrange, []any{0, 10, 2}, nil)
		require.NoError(t, err)
		assert.Contains(t, []any{0, 2, 4, 6, 8}, v)

		v, err = b.Param("mode", Choice, []any{[]any{"fast", "safe"}}, nil)
		require.NoError(t, err)
		assert.Contains(t, []any{"fast", "safe"}, v)
	}
}

// A degenerate range pins the draw.
func TestRandomBackendDegenerateUniform(t *testing.T) {
	b := newRandom(t, nil)

	v, err := b.Param("x", Uniform, []any{3.0, 3.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestRandomBackendSeededDeterminism(t *testing.T) {
	a := newRandom(t, Options{"seed": 42})
	b := newRandom(t, Options{"seed": 42})

	for i := 0; i < 10; i++ {
		va, err := a.Param("x", Uniform, []any{0.0, 1.0}, nil)
		require.NoError(t, err)

		vb, err := b.Param("x", Uniform, []any{0.0, 1.0}, nil)
		require.NoError(t, err)

		assert.Equal(t, va, vb)
	}
}

func TestRandomBackendValidatesArguments(t *testing.T) {
	b := newRandom(t, nil)

	_, err := b.Param("x", "zipfian", []any{1.0}, nil)
	assert.ErrorIs(t, err, ErrUnknownDistribution)

	_, err = b.Param("n", Randrange, []any{10, 0}, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

// The random backend keeps no model state, so reuse is always fine.
func TestRandomBackendAttemptUpdateAlwaysTrue(t *testing.T) {
	b := newRandom(t, nil)

	assert.True(t, b.AttemptUpdate(nil, nil, nil))

	params := map[string]ParamSpec{
		"x": {Name: "x", Func: Uniform, Args: []any{0.0, 1.0}},
	}
	examples := []Example{
		{Values: map[string]any{"x": 0.5}, Outcome: Loss(1.0)},
	}

	assert.True(t, b.AttemptUpdate(examples, params, Options{"anything": 1}))
}

func TestRandomBackendName(t *testing.T) {
	b := newRandom(t, nil)

	assert.Equal(t, RandomBackendName, b.Name())
	assert.Empty(t, b.CurrentValues())
}
