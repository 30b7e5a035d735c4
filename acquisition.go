package tune

import (
	"fmt"
	"math"
	"math/rand/v2"
)

//////
// Acquisition functions for the bayes backend.
//
// Each scores a candidate point from the surrogate's predicted loss mean and
// variance; lower scores are more promising. They balance exploring uncertain
// regions against exploiting regions already known to be good.
//////

// Names accepted by the "acquisition" backend option.
const (
	AcquisitionUCB      = "ucb"
	AcquisitionPI       = "pi"
	AcquisitionEI       = "ei"
	AcquisitionThompson = "thompson"
)

// AcquisitionFunc scores a candidate point. Lower values indicate more
// promising points.
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// AcquisitionParams carries the knobs the acquisition functions read.
type AcquisitionParams struct {
	// Beta is UCB's exploration weight: higher values favor uncertain
	// regions. 2.0 is a reasonable default.
	Beta float64

	// Xi is the minimum-improvement margin used by PI and EI. Typical
	// values are 0.01 to 0.1.
	Xi float64

	// BestSoFar is the lowest loss observed so far. The bayes backend
	// maintains it as examples arrive.
	BestSoFar float64

	// Rand drives Thompson sampling. Must be non-nil when that function is
	// selected.
	Rand *rand.Rand
}

// UCB is the (lower) confidence bound: predicted mean minus Beta standard
// deviations. The default choice.
func UCB(mean, variance float64, params AcquisitionParams) float64 {
	return mean - params.Beta*math.Sqrt(variance)
}

// ProbabilityOfImprovement scores by how likely a point is to beat the best
// observed loss by at least Xi. Conservative; favors small, reliable
// improvements.
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	z := (mean - params.BestSoFar - params.Xi) / math.Sqrt(variance)

	return normalCDF(z)
}

// ExpectedImprovement weighs both the probability and the magnitude of
// improvement over the best observed loss. The most common choice in
// practice.
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(variance)

	z := (mean - params.BestSoFar - params.Xi) / sigma

	return (mean-params.BestSoFar-params.Xi)*normalCDF(z) + sigma*normalPDF(z)
}

// ThompsonSampling draws one posterior sample per candidate; the randomness
// itself balances exploration and exploitation.
func ThompsonSampling(mean, variance float64, params AcquisitionParams) float64 {
	return mean + math.Sqrt(variance)*params.Rand.NormFloat64()
}

// acquisitionByName resolves the "acquisition" backend option.
func acquisitionByName(name string) (AcquisitionFunc, error) {
	switch name {
	case AcquisitionUCB:
		return UCB, nil
	case AcquisitionPI:
		return ProbabilityOfImprovement, nil
	case AcquisitionEI:
		return ExpectedImprovement, nil
	case AcquisitionThompson:
		return ThompsonSampling, nil
	}

	return nil, fmt.Errorf("%w: unknown acquisition function %q", ErrUnknownAlg, name)
}
