package tune

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUCB(t *testing.T) {
	params := AcquisitionParams{Beta: 2.0}

	// mean - beta*sqrt(variance)
	assert.InDelta(t, -3.0, UCB(1.0, 4.0, params), 1e-12)

	// Higher beta rewards uncertainty more.
	params.Beta = 4.0
	assert.Less(t, UCB(1.0, 4.0, params), -3.0)
}

func TestProbabilityOfImprovement(t *testing.T) {
	params := AcquisitionParams{Xi: 0.0, BestSoFar: 1.0}

	// At mean == best the improvement odds are even.
	assert.InDelta(t, 0.5, ProbabilityOfImprovement(1.0, 1.0, params), 1e-9)

	// A mean well below the best scores near 0, well above near 1.
	assert.Less(t, ProbabilityOfImprovement(-5.0, 1.0, params), 0.01)
	assert.Greater(t, ProbabilityOfImprovement(7.0, 1.0, params), 0.99)
}

func TestExpectedImprovement(t *testing.T) {
	params := AcquisitionParams{Xi: 0.0, BestSoFar: 1.0}

	// At mean == best with unit variance: 0*CDF(0) + 1*PDF(0).
	assert.InDelta(t, 1.0/math.Sqrt(2*math.Pi), ExpectedImprovement(1.0, 1.0, params), 1e-9)
}

func TestThompsonSampling(t *testing.T) {
	params := AcquisitionParams{Rand: rand.New(rand.NewPCG(1, 1))}

	// Zero variance collapses the draw to the mean.
	assert.Equal(t, 2.5, ThompsonSampling(2.5, 0.0, params))

	// The same seed reproduces the same draws.
	a := AcquisitionParams{Rand: rand.New(rand.NewPCG(7, 7))}
	b := AcquisitionParams{Rand: rand.New(rand.NewPCG(7, 7))}

	for i := 0; i < 5; i++ {
		assert.Equal(t, ThompsonSampling(0.0, 1.0, a), ThompsonSampling(0.0, 1.0, b))
	}
}

func TestAcquisitionByName(t *testing.T) {
	for _, name := range []string{AcquisitionUCB, AcquisitionPI, AcquisitionEI, AcquisitionThompson} {
		fn, err := acquisitionByName(name)
		require.NoError(t, err, "acquisition %q", name)
		assert.NotNil(t, fn)
	}

	_, err := acquisitionByName("grid")
	assert.ErrorIs(t, err, ErrUnknownAlg)
}
