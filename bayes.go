package tune

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

//////
// Bayes backend.
//
// Gaussian Process regression over the extracted feature vectors, with an
// acquisition function choosing the serving values by candidate search.
//////

// BayesBackendName is the registry name of the bayes backend.
const BayesBackendName = "bayes"

// Options understood by the bayes backend (all optional):
//
//	"acquisition": "ucb" | "pi" | "ei" | "thompson" (default "ucb")
//	"candidates":  candidate points scored per refresh (default 64)
//	"beta":        UCB exploration weight (default 2.0)
//	"xi":          PI/EI improvement margin (default 0.01)
//	"sigma":       RBF kernel width (default 1.0)
//	"seed":        RNG seed; 0 or absent means time-based
//
// BayesBackend fits a Gaussian Process to the trial history and serves the
// parameter combination that minimizes the acquisition score over a set of
// randomly drawn candidates. It supports incremental update: new examples
// feed straight into the Gaussian Process and the serving values are
// recomputed, so AttemptUpdate succeeds whenever only new trials were
// appended.
//
// The backend implements the built-in distribution tags only (categorical
// values enter the model as option indices, randrange values as zero-based
// offsets) and supports the "guess" and "placeholder_when_missing" kwargs.
// Vector-valued losses fold to their arithmetic mean before entering the
// model.
type BayesBackend struct {
	baseBackend

	// mu guards src across candidate draws and Thompson sampling.
	mu  sync.Mutex
	src rand.Source

	gp         *gaussianProcess
	acq        AcquisitionFunc
	acqParams  AcquisitionParams
	candidates int
	extract    ExtractOptions

	// bestLoss is the lowest scalarized loss observed so far, feeding the
	// PI/EI improvement margin.
	bestLoss float64
}

// NewBayesBackend constructs a bayes backend from the trial history. With an
// empty history (or no params) the serving values stay empty and Param falls
// through to guesses and the random fallback.
func NewBayesBackend(examples []Example, params map[string]ParamSpec, opts Options, logger *slog.Logger) (Backend, error) {
	base, err := newBaseBackend(BayesBackendName, examples, params, opts, logger)
	if err != nil {
		return nil, err
	}

	base.implementedFuncs = builtinDistributions()
	base.supportedKwargs = map[string]bool{
		KwargGuess:                  true,
		KwargPlaceholderWhenMissing: true,
	}

	acq, err := acquisitionByName(stringOption(opts, "acquisition", AcquisitionUCB))
	if err != nil {
		return nil, err
	}

	seed := uint64(intOption(opts, "seed", 0))
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	src := rand.NewPCG(seed, seed)

	b := &BayesBackend{
		baseBackend: base,
		src:         src,
		gp:          newGaussianProcess(),
		acq:         acq,
		acqParams: AcquisitionParams{
			Beta:      floatOption(opts, "beta", 2.0),
			Xi:        floatOption(opts, "xi", 0.01),
			BestSoFar: math.MaxFloat64,
			Rand:      rand.New(src),
		},
		candidates: intOption(opts, "candidates", 64),
		extract: ExtractOptions{
			Converters: StandardConverters(),
			// The model needs every feature numeric, catalog
			// placeholders included.
			ConvertFallback: true,
		},
		bestLoss: math.MaxFloat64,
	}

	b.gp.SetSigma(floatOption(opts, "sigma", 1.0))
	b.bindSelf(b)

	if err := b.ingest(b.examples); err != nil {
		return nil, err
	}

	if b.gp.Len() > 0 && len(b.params) > 0 {
		if err := b.refreshServingValues(); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// TellExamples folds newly observed trials into the Gaussian Process and
// recomputes the serving values. Only the new suffix is expected — the full
// history was ingested at construction. The params must be the construction
// params; AttemptUpdate enforces that for the caching path.
func (b *BayesBackend) TellExamples(newExamples []Example, _ map[string]ParamSpec) error {
	norm, err := normalizeExamples(newExamples)
	if err != nil {
		return err
	}

	if err := b.ingest(norm); err != nil {
		return err
	}

	b.examples = append(b.examples, norm...)

	if len(b.params) == 0 {
		return nil
	}

	return b.refreshServingValues()
}

// ingest feeds examples into the Gaussian Process, tracking the best loss.
func (b *BayesBackend) ingest(examples []Example) error {
	if len(examples) == 0 {
		return nil
	}

	features, losses, err := SplitExamples(examples, b.params, b.extract)
	if err != nil {
		return err
	}

	for i := range features {
		fv, err := floatVector(features[i])
		if err != nil {
			return err
		}

		loss, err := scalarizeLoss(losses[i])
		if err != nil {
			return err
		}

		b.gp.Update(fv, loss)

		if loss < b.bestLoss {
			b.bestLoss = loss
		}
	}

	return nil
}

// refreshServingValues draws candidate parameter combinations from their
// declared distributions, scores each with the acquisition function against
// the Gaussian Process prediction, and installs the most promising one as the
// serving values.
func (b *BayesBackend) refreshServingValues() error {
	names := SortedParamNames(b.params)

	acqParams := b.acqParams
	acqParams.BestSoFar = b.bestLoss

	b.mu.Lock()
	defer b.mu.Unlock()

	bestScore := math.MaxFloat64

	var best ServingValues

	for c := 0; c < b.candidates; c++ {
		candidate := make(ServingValues, len(names))
		fv := make([]float64, len(names))

		for i, name := range names {
			spec := b.params[name]

			entry, ok := lookupDistribution(spec.Func)
			if !ok || entry.sample == nil {
				return fmt.Errorf("%w: %q", ErrUnsupportedFunction, spec.Func)
			}

			v, err := entry.sample(b.src, spec.Args)
			if err != nil {
				return err
			}

			candidate[name] = v

			// Candidate values are explicit, so they are always
			// converted into model units.
			if conv, okc := b.extract.Converters[spec.Func]; okc {
				v, err = conv(v, spec.Args)
				if err != nil {
					return err
				}
			}

			f, okf := asFloat(v)
			if !okf {
				return fmt.Errorf("%w: candidate for %q is not numeric (%T)", ErrUnsupportedFunction, name, v)
			}

			fv[i] = f
		}

		mean, variance := b.gp.Predict(fv)

		score := b.acq(mean, variance, acqParams)
		if score < bestScore {
			bestScore = score
			best = candidate
		}
	}

	if best != nil {
		b.currentValues = best

		b.logger.Debug("serving values refreshed",
			"backend", b.name,
			"id", b.id,
			"observations", b.gp.Len(),
			"score", bestScore)
	}

	return nil
}

// floatVector coerces an extracted feature vector to float64s.
func floatVector(features []any) ([]float64, error) {
	out := make([]float64, len(features))

	for i, f := range features {
		v, ok := asFloat(f)
		if !ok {
			return nil, fmt.Errorf("%w: feature %d is not numeric (%T)", ErrInvalidExample, i, f)
		}

		out[i] = v
	}

	return out, nil
}

// scalarizeLoss reduces a loss to one float64: scalars pass through,
// sequences fold to their arithmetic mean (recursively).
func scalarizeLoss(loss any) (float64, error) {
	if f, ok := asFloat(loss); ok {
		return f, nil
	}

	seq, ok := unwrapScalar(loss).([]any)
	if !ok || len(seq) == 0 {
		return 0, fmt.Errorf("%w: loss must be numeric or a non-empty sequence, got %T", ErrInvalidExample, loss)
	}

	var sum float64

	for _, e := range seq {
		v, err := scalarizeLoss(e)
		if err != nil {
			return 0, err
		}

		sum += v
	}

	return sum / float64(len(seq)), nil
}
