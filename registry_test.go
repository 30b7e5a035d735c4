package tune

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, []string{"bayes", "random"}, r.Backends())
	assert.Equal(t, []string{"bayes_ei", "bayes_pi", "bayes_ucb", "random_search"}, r.Algs())
}

func TestRegistryResolvesAliases(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, RandomBackendName, r.Resolve("rand"))
	assert.Equal(t, BayesBackendName, r.Resolve("gp"))

	// Unknown names resolve to themselves.
	assert.Equal(t, "mystery", r.Resolve("mystery"))
}

func TestRegistryNew(t *testing.T) {
	r := NewRegistry(nil)

	b, err := r.New("rand", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, RandomBackendName, b.Name())

	b, err = r.New("bayes", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, BayesBackendName, b.Name())

	_, err = r.New("mystery", nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRegistryNewForAlg(t *testing.T) {
	r := NewRegistry(nil)

	params := map[string]ParamSpec{
		"x": {Name: "x", Func: Uniform, Args: []any{0.0, 1.0}},
	}
	examples := []Example{
		{Values: map[string]any{"x": 0.3}, Outcome: Loss(1.0)},
		{Values: map[string]any{"x": 0.7}, Outcome: Loss(2.0)},
	}

	b, err := r.NewForAlg("bayes_ei", examples, params)
	require.NoError(t, err)
	assert.Equal(t, BayesBackendName, b.Name())

	b, err = r.NewForAlg("random_search", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, RandomBackendName, b.Name())

	_, err = r.NewForAlg("grid_search", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownAlg)
}

func TestRegistryCustomBackend(t *testing.T) {
	r := NewRegistry(nil)

	var constructed string

	ctor := func(name string) Constructor {
		return func(examples []Example, params map[string]ParamSpec, opts Options, logger *slog.Logger) (Backend, error) {
			constructed = name
			return NewRandomBackend(examples, params, opts, logger)
		}
	}

	r.RegisterBackend("custom", ctor("first"))
	r.RegisterAlias("c", "custom")
	r.RegisterAlg("custom_search", "custom", Options{"seed": 9})

	_, err := r.New("c", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", constructed)

	_, err = r.NewForAlg("custom_search", nil, nil)
	require.NoError(t, err)

	// Re-registering a name overwrites it.
	r.RegisterBackend("custom", ctor("second"))

	_, err = r.New("custom", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", constructed)

	assert.Contains(t, r.Backends(), "custom")
	assert.Contains(t, r.Algs(), "custom_search")
}
