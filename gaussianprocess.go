package tune

import (
	"math"
	"sync"
)

//////
// Gaussian Process surrogate used by the bayes backend.
//////

// gaussianProcess is a thread-safe Gaussian Process regression model over
// feature vectors. The bayes backend uses it to predict the loss of untried
// parameter combinations from previously observed trials.
//
// Memory grows linearly with the number of observations; prediction cost is
// quadratic in them. Long-running searches should cap their history upstream.
type gaussianProcess struct {
	// mu protects access to all fields.
	mu sync.RWMutex

	// points stores the observed feature vectors. Inner lengths must be
	// consistent.
	points [][]float64

	// losses stores the observed loss at each point. Same length as
	// points.
	losses []float64

	// sigma is the RBF kernel width. Larger values smooth the
	// interpolation, smaller values localize each observation's
	// influence.
	sigma float64
}

// newGaussianProcess returns an empty model with sigma = 1.0, suitable for
// roughly unit-scaled features.
func newGaussianProcess() *gaussianProcess {
	return &gaussianProcess{sigma: 1.0}
}

// rbfKernel measures the similarity of two feature vectors, decreasing
// exponentially with squared Euclidean distance:
//
//	k(x1, x2) = exp(-sum((x1 - x2)^2) / (2 * sigma^2))
//
// Identical points score 1.0; distant points approach 0.0. Panics if the
// vectors differ in length — the sorted-name feature order makes mismatched
// lengths a programming error, not an input error.
func (gp *gaussianProcess) rbfKernel(x1, x2 []float64) float64 {
	gp.mu.RLock()
	sigma := gp.sigma
	gp.mu.RUnlock()

	return rbf(x1, x2, sigma)
}

// rbf is the lock-free kernel shared by rbfKernel and Predict.
func rbf(x1, x2 []float64, sigma float64) float64 {
	if len(x1) != len(x2) {
		panic("feature vectors must have the same length")
	}

	var sum float64

	for i := range x1 {
		diff := x1[i] - x2[i]

		sum += diff * diff
	}

	return math.Exp(-sum / (2 * sigma * sigma))
}

// Predict estimates the expected loss and the uncertainty of that estimate at
// a feature point. With no observations it returns (0, 1): no opinion,
// maximal uncertainty.
func (gp *gaussianProcess) Predict(x []float64) (mean, variance float64) {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	if len(gp.points) == 0 {
		return 0, 1
	}

	// Kernel values between x and every observed point.
	k := make([]float64, len(gp.points))
	for i := range gp.points {
		k[i] = rbf(x, gp.points[i], gp.sigma)
	}

	var sum float64

	for i := range gp.points {
		sum += k[i] * gp.losses[i]
	}

	mean = sum / float64(len(gp.points))

	variance = 1.0

	for i := range gp.points {
		for j := range gp.points {
			variance -= k[i] * k[j] / float64(len(gp.points))
		}
	}

	return mean, variance
}

// Update adds one observation. The feature vector is copied, so callers may
// reuse their slice.
func (gp *gaussianProcess) Update(x []float64, loss float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	point := make([]float64, len(x))
	copy(point, x)

	gp.points = append(gp.points, point)
	gp.losses = append(gp.losses, loss)
}

// SetSigma adjusts the kernel width for subsequent predictions.
func (gp *gaussianProcess) SetSigma(sigma float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.sigma = sigma
}

// Len reports the number of observations.
func (gp *gaussianProcess) Len() int {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	return len(gp.points)
}
