package tune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bayesFixture() (map[string]ParamSpec, []Example) {
	params := map[string]ParamSpec{
		"lr":   {Name: "lr", Func: Uniform, Args: []any{0.0, 1.0}},
		"n":    {Name: "n", Func: Randrange, Args: []any{0, 10, 2}},
		"mode": {Name: "mode", Func: Choice, Args: []any{[]any{"fast", "safe"}}},
	}

	examples := []Example{
		{Values: map[string]any{"lr": 0.1, "n": 2, "mode": "fast"}, Outcome: Loss(3.0)},
		{Values: map[string]any{"lr": 0.5, "n": 4, "mode": "safe"}, Outcome: Loss(1.0)},
		{Values: map[string]any{"lr": 0.9, "n": 8, "mode": "fast"}, Outcome: Loss(5.0)},
	}

	return params, examples
}

func assertServedWithinRanges(t *testing.T, values ServingValues) {
	t.Helper()

	require.Len(t, values, 3)

	lr, ok := asFloat(values["lr"])
	require.True(t, ok)
	assert.GreaterOrEqual(t, lr, 0.0)
	assert.Less(t, lr, 1.0)

	assert.Contains(t, []any{0, 2, 4, 6, 8}, values["n"])
	assert.Contains(t, []any{"fast", "safe"}, values["mode"])
}

func TestBayesBackendServesValuesFromHistory(t *testing.T) {
	params, examples := bayesFixture()

	b, err := NewBayesBackend(examples, params, Options{"seed": 42}, nil)
	require.NoError(t, err)

	assertServedWithinRanges(t, b.CurrentValues())

	// Param serves the chosen combination for declared names.
	v, err := b.Param("lr", Uniform, []any{0.0, 1.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, b.CurrentValues()["lr"], v)
}

// Without history the backend has no opinion and falls through to the guess
// and then the random fallback.
func TestBayesBackendEmptyHistory(t *testing.T) {
	params, _ := bayesFixture()

	b, err := NewBayesBackend(nil, params, Options{"seed": 42}, nil)
	require.NoError(t, err)
	assert.Empty(t, b.CurrentValues())

	v, err := b.Param("lr", Uniform, []any{0.0, 1.0}, Kwargs{KwargGuess: 0.25})
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	v, err = b.Param("lr", Uniform, []any{0.5, 0.5}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestBayesBackendTellExamples(t *testing.T) {
	params, examples := bayesFixture()

	b, err := NewBayesBackend(examples[:2], params, Options{"seed": 42}, nil)
	require.NoError(t, err)

	inc, ok := b.(IncrementalBackend)
	require.True(t, ok)

	require.NoError(t, inc.TellExamples(examples[2:], params))
	assertServedWithinRanges(t, b.CurrentValues())
}

func TestBayesBackendAttemptUpdate(t *testing.T) {
	params, examples := bayesFixture()

	b, err := NewBayesBackend(examples[:2], params, Options{"seed": 42}, nil)
	require.NoError(t, err)

	// Appended history reuses the model.
	assert.True(t, b.AttemptUpdate(examples, params, Options{"seed": 42}))
	assertServedWithinRanges(t, b.CurrentValues())

	// Changed options force reconstruction.
	assert.False(t, b.AttemptUpdate(examples, params, Options{"seed": 43}))
}

func TestBayesBackendRestrictions(t *testing.T) {
	params, examples := bayesFixture()

	b, err := NewBayesBackend(examples, params, Options{"seed": 42}, nil)
	require.NoError(t, err)

	_, err = b.Param("z", "zipfian", []any{1.0}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFunction)

	_, err = b.Param("lr", Uniform, []any{0.0, 1.0}, Kwargs{"exotic": 1})
	assert.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestBayesBackendAcquisitionOptions(t *testing.T) {
	params, examples := bayesFixture()

	for _, name := range []string{AcquisitionUCB, AcquisitionPI, AcquisitionEI, AcquisitionThompson} {
		b, err := NewBayesBackend(examples, params, Options{"acquisition": name, "seed": 42}, nil)
		require.NoError(t, err, "acquisition %q", name)
		assertServedWithinRanges(t, b.CurrentValues())
	}

	_, err := NewBayesBackend(nil, nil, Options{"acquisition": "simulated_annealing"}, nil)
	assert.ErrorIs(t, err, ErrUnknownAlg)
}

// Vector losses fold to their mean before entering the model.
func TestBayesBackendFoldsNestedLosses(t *testing.T) {
	params, _ := bayesFixture()

	examples := []Example{
		{
			Values:  map[string]any{"lr": 0.1, "n": 2, "mode": "fast"},
			Outcome: Loss([]any{1.0, 3.0}),
		},
	}

	b, err := NewBayesBackend(examples, params, Options{"seed": 42}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, b.(*BayesBackend).bestLoss)
}

func TestScalarizeLoss(t *testing.T) {
	v, err := scalarizeLoss(3.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	v, err = scalarizeLoss([]any{1.0, []any{2.0, 4.0}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = scalarizeLoss("oops")
	assert.ErrorIs(t, err, ErrInvalidExample)

	_, err = scalarizeLoss([]any{})
	assert.ErrorIs(t, err, ErrInvalidExample)
}
