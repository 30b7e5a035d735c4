package tune

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Distribution Catalog.
//
// The closed set of supported random-distribution functions. Each tag carries
// a fixed argument contract (validator), a deterministic placeholder
// (midpoint-like representative value), and a sampler used by the Random
// Backend. The catalog is process-wide state initialized at load time and
// mutated only by RegisterDistribution.
//////

// Built-in distribution tags. Arguments follow the classic pseudo-random
// sampling signatures:
//
//	randrange(stop) / randrange(start, stop[, step])  — integers
//	choice(options)                                   — one iterable
//	uniform(a, b)
//	triangular(low, high, mode)
//	betavariate(alpha, beta)
//	expovariate(lambda)
//	gammavariate(alpha, beta)
//	normalvariate(mu, sigma)
//	vonmisesvariate(mu, kappa)
//	paretovariate(alpha)
//	weibullvariate(alpha, beta)
const (
	Randrange       Distribution = "randrange"
	Choice          Distribution = "choice"
	Uniform         Distribution = "uniform"
	Triangular      Distribution = "triangular"
	Betavariate     Distribution = "betavariate"
	Expovariate     Distribution = "expovariate"
	Gammavariate    Distribution = "gammavariate"
	Normalvariate   Distribution = "normalvariate"
	Vonmisesvariate Distribution = "vonmisesvariate"
	Paretovariate   Distribution = "paretovariate"
	Weibullvariate  Distribution = "weibullvariate"
)

// ValidateFunc checks a distribution's positional arguments against its
// arity/type contract. Violations are reported as *InvalidArgumentsError.
type ValidateFunc func(args []any) error

// PlaceholderFunc produces the tag's deterministic representative value.
// Arguments are already validated and normalized when the catalog invokes it.
type PlaceholderFunc func(args []any) (any, error)

// SampleFunc draws one value from the distribution. Arguments are already
// validated and normalized when the catalog invokes it.
type SampleFunc func(src rand.Source, args []any) (any, error)

// catalogEntry bundles one tag's contract.
type catalogEntry struct {
	validate    ValidateFunc
	placeholder PlaceholderFunc
	sample      SampleFunc
}

var (
	catalogMu sync.RWMutex
	catalog   = builtinCatalog()
)

// RegisterDistribution adds (or replaces) a distribution tag at runtime,
// enabling extension without modifying the catalog. There is no deduplication
// check — the last registration for a tag wins.
//
// A nil validate accepts any arguments; a nil sample leaves the tag
// unsampleable (the Random Backend rejects it with ErrUnsupportedFunction).
func RegisterDistribution(fn Distribution, validate ValidateFunc, placeholder PlaceholderFunc, sample SampleFunc) {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	catalog[fn] = catalogEntry{
		validate:    validate,
		placeholder: placeholder,
		sample:      sample,
	}
}

// SupportedDistributions returns the currently registered tags in sorted
// order.
func SupportedDistributions() []Distribution {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	out := make([]Distribution, 0, len(catalog))
	for fn := range catalog {
		out = append(out, fn)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// lookupDistribution resolves a tag's catalog entry.
func lookupDistribution(fn Distribution) (catalogEntry, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	entry, ok := catalog[fn]

	return entry, ok
}

// builtinDistributions is the tag set the built-in backends declare as
// implemented. Runtime-registered tags are deliberately excluded: a backend
// has no feature encoding for them.
func builtinDistributions() map[Distribution]bool {
	return map[Distribution]bool{
		Randrange:       true,
		Choice:          true,
		Uniform:         true,
		Triangular:      true,
		Betavariate:     true,
		Expovariate:     true,
		Gammavariate:    true,
		Normalvariate:   true,
		Vonmisesvariate: true,
		Paretovariate:   true,
		Weibullvariate:  true,
	}
}

//////
// Built-in contracts.
//////

func builtinCatalog() map[Distribution]catalogEntry {
	return map[Distribution]catalogEntry{
		Randrange: {
			validate:    validateRandrange,
			placeholder: placeholderRandrange,
			sample:      sampleRandrange,
		},
		Choice: {
			validate:    validateChoice,
			placeholder: placeholderChoice,
			sample:      sampleChoice,
		},
		Uniform: {
			validate: numericValidator(Uniform, 2),
			placeholder: func(args []any) (any, error) {
				a, b := floatArg(args, 0), floatArg(args, 1)
				return (a + b) / 2, nil
			},
			sample: sampleUniform,
		},
		Triangular: {
			validate: numericValidator(Triangular, 3),
			placeholder: func(args []any) (any, error) {
				// The mode is the most representative point.
				return floatArg(args, 2), nil
			},
			sample: sampleTriangular,
		},
		Betavariate: {
			validate: positiveValidator(Betavariate, 2),
			placeholder: func(args []any) (any, error) {
				alpha, beta := floatArg(args, 0), floatArg(args, 1)
				return alpha / (alpha + beta), nil
			},
			sample: sampleBeta,
		},
		Expovariate: {
			validate: positiveValidator(Expovariate, 1),
			placeholder: func(args []any) (any, error) {
				return 1 / floatArg(args, 0), nil
			},
			sample: sampleExponential,
		},
		Gammavariate: {
			validate: positiveValidator(Gammavariate, 2),
			placeholder: func(args []any) (any, error) {
				// Mean of the rate parametrization.
				return floatArg(args, 0) / floatArg(args, 1), nil
			},
			sample: sampleGamma,
		},
		Normalvariate: {
			validate: numericValidator(Normalvariate, 2),
			placeholder: func(args []any) (any, error) {
				return floatArg(args, 0), nil
			},
			sample: sampleNormal,
		},
		Vonmisesvariate: {
			validate: numericValidator(Vonmisesvariate, 2),
			placeholder: func(args []any) (any, error) {
				return floatArg(args, 0), nil
			},
			sample: sampleVonMises,
		},
		Paretovariate: {
			validate: positiveValidator(Paretovariate, 1),
			placeholder: func(args []any) (any, error) {
				alpha := floatArg(args, 0)
				if alpha <= 1 {
					return 1.0, nil
				}
				return alpha / (alpha - 1), nil
			},
			sample: samplePareto,
		},
		Weibullvariate: {
			validate: positiveValidator(Weibullvariate, 2),
			placeholder: func(args []any) (any, error) {
				// Median: alpha * ln(2)^(1/beta).
				alpha, beta := floatArg(args, 0), floatArg(args, 1)
				return alpha * math.Pow(math.Ln2, 1/beta), nil
			},
			sample: sampleWeibull,
		},
	}
}

// floatArg reads a validated numeric argument. Only called after the tag's
// validator accepted the arguments.
func floatArg(args []any, i int) float64 {
	f, _ := asFloat(args[i])
	return f
}

// numericValidator builds a fixed-arity, all-numeric argument validator.
func numericValidator(fn Distribution, arity int) ValidateFunc {
	return func(args []any) error {
		if len(args) != arity {
			return invalidArgs(fn, args, "expected %d arguments, got %d", arity, len(args))
		}

		for i, a := range args {
			if _, ok := asFloat(a); !ok {
				return invalidArgs(fn, args, "argument %d must be numeric, got %T", i, a)
			}
		}

		return nil
	}
}

// positiveValidator builds a fixed-arity validator requiring strictly
// positive numeric arguments (shape/rate parameters).
func positiveValidator(fn Distribution, arity int) ValidateFunc {
	numeric := numericValidator(fn, arity)

	return func(args []any) error {
		if err := numeric(args); err != nil {
			return err
		}

		for i := range args {
			if floatArg(args, i) <= 0 {
				return invalidArgs(fn, args, "argument %d must be positive", i)
			}
		}

		return nil
	}
}

//////
// randrange.
//////

func validateRandrange(args []any) error {
	if len(args) < 1 || len(args) > 3 {
		return invalidArgs(Randrange, args, "expected 1 to 3 arguments, got %d", len(args))
	}

	ints := make([]int, len(args))

	for i, a := range args {
		v, ok := asInt(a)
		if !ok {
			return invalidArgs(Randrange, args, "argument %d must be an integer, got %T", i, a)
		}

		ints[i] = v
	}

	if len(ints) >= 2 && ints[0] > ints[1] {
		return invalidArgs(Randrange, args, "start %d exceeds stop %d", ints[0], ints[1])
	}

	if len(ints) == 3 && ints[2] < 1 {
		return invalidArgs(Randrange, args, "step must be a positive integer, got %d", ints[2])
	}

	return nil
}

// randrangeBounds normalizes the 1-3 argument forms to (start, stop, step).
func randrangeBounds(args []any) (start, stop, step int) {
	step = 1

	switch len(args) {
	case 1:
		stop, _ = asInt(args[0])
	case 2:
		start, _ = asInt(args[0])
		stop, _ = asInt(args[1])
	case 3:
		start, _ = asInt(args[0])
		stop, _ = asInt(args[1])
		step, _ = asInt(args[2])
	}

	return start, stop, step
}

// randrangeCount is the number of elements in the arithmetic range.
func randrangeCount(start, stop, step int) int {
	if stop <= start {
		return 0
	}

	return (stop - start + step - 1) / step
}

func placeholderRandrange(args []any) (any, error) {
	start, stop, step := randrangeBounds(args)

	count := randrangeCount(start, stop, step)
	if count == 0 {
		return start, nil
	}

	// Midpoint element of the arithmetic range.
	return start + (count/2)*step, nil
}

func sampleRandrange(src rand.Source, args []any) (any, error) {
	start, stop, step := randrangeBounds(args)

	count := randrangeCount(start, stop, step)
	if count == 0 {
		return start, nil
	}

	return start + step*rand.New(src).IntN(count), nil
}

//////
// choice.
//////

func validateChoice(args []any) error {
	if len(args) != 1 {
		return invalidArgs(Choice, args, "expected one iterable of options, got %d arguments", len(args))
	}

	opts, ok := optionsOf(args[0])
	if !ok {
		return invalidArgs(Choice, args, "argument must be an iterable, got %T", args[0])
	}

	if len(opts) == 0 {
		return invalidArgs(Choice, args, "options must not be empty")
	}

	return nil
}

func placeholderChoice(args []any) (any, error) {
	opts, _ := optionsOf(args[0])

	// The option at floor(len/2).
	return opts[len(opts)/2], nil
}

func sampleChoice(src rand.Source, args []any) (any, error) {
	opts, _ := optionsOf(args[0])

	return opts[rand.New(src).IntN(len(opts))], nil
}

//////
// Continuous samplers (gonum distuv).
//////

func sampleUniform(src rand.Source, args []any) (any, error) {
	a, b := floatArg(args, 0), floatArg(args, 1)

	// Degenerate range: always the single admissible value.
	if a == b {
		return a, nil
	}

	return distuv.Uniform{Min: a, Max: b, Src: src}.Rand(), nil
}

func sampleTriangular(src rand.Source, args []any) (any, error) {
	low, high, mode := floatArg(args, 0), floatArg(args, 1), floatArg(args, 2)

	if low > high || mode < low || mode > high {
		return nil, invalidArgs(Triangular, args, "requires low <= mode <= high")
	}

	if low == high {
		return low, nil
	}

	return distuv.NewTriangle(low, high, mode, src).Rand(), nil
}

func sampleBeta(src rand.Source, args []any) (any, error) {
	return distuv.Beta{Alpha: floatArg(args, 0), Beta: floatArg(args, 1), Src: src}.Rand(), nil
}

func sampleExponential(src rand.Source, args []any) (any, error) {
	return distuv.Exponential{Rate: floatArg(args, 0), Src: src}.Rand(), nil
}

func sampleGamma(src rand.Source, args []any) (any, error) {
	// Rate parametrization: mean alpha/beta, matching the placeholder.
	return distuv.Gamma{Alpha: floatArg(args, 0), Beta: floatArg(args, 1), Src: src}.Rand(), nil
}

func sampleNormal(src rand.Source, args []any) (any, error) {
	mu, sigma := floatArg(args, 0), floatArg(args, 1)

	if sigma == 0 {
		return mu, nil
	}

	return distuv.Normal{Mu: mu, Sigma: sigma, Src: src}.Rand(), nil
}

func samplePareto(src rand.Source, args []any) (any, error) {
	return distuv.Pareto{Xm: 1, Alpha: floatArg(args, 0), Src: src}.Rand(), nil
}

func sampleWeibull(src rand.Source, args []any) (any, error) {
	// alpha is the scale, beta the shape.
	return distuv.Weibull{K: floatArg(args, 1), Lambda: floatArg(args, 0), Src: src}.Rand(), nil
}

// sampleVonMises draws from the von Mises distribution on [0, 2π) using the
// Best–Fisher wrapped-Cauchy rejection method. distuv carries no von Mises
// distribution, so this one is sampled directly.
func sampleVonMises(src rand.Source, args []any) (any, error) {
	mu, kappa := floatArg(args, 0), floatArg(args, 1)

	rng := rand.New(src)

	// Negligible concentration degenerates to the circular uniform.
	if kappa <= 1e-6 {
		return 2 * math.Pi * rng.Float64(), nil
	}

	s := 0.5 / kappa
	r := s + math.Sqrt(1+s*s)

	var z float64

	for {
		u1 := rng.Float64()
		z = math.Cos(math.Pi * u1)

		d := z / (r + z)
		u2 := rng.Float64()

		if u2 < 1-d*d || u2 <= (1-d)*math.Exp(d) {
			break
		}
	}

	q := 1 / r
	f := (q + z) / (1 + q*z)

	theta := mu - math.Acos(f)
	if rng.Float64() > 0.5 {
		theta = mu + math.Acos(f)
	}

	// Wrap into [0, 2π).
	theta = math.Mod(theta, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}

	return theta, nil
}
