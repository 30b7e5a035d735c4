// Package tune is a hyperparameter-search abstraction layer. Callers declare
// named parameters drawn from standard probability distributions, record past
// trials (parameter values paired with an observed gain or loss), and obtain
// the next value for each parameter from a pluggable optimization backend.
//
// # Features
//
//   - Distribution Catalog: a closed, runtime-extensible vocabulary of
//     distribution functions (uniform, randrange, choice, betavariate,
//     expovariate, gammavariate, normalvariate, vonmisesvariate,
//     paretovariate, weibullvariate, triangular), each with a strict argument
//     contract and a deterministic placeholder value
//   - Param Processor: validation and canonicalization of arbitrary
//     user-supplied declarations, including normalization of foreign numeric
//     scalar types
//   - Backend contract: stateless sampling, stateful incremental
//     re-optimization, and safe reuse across repeated calls with partially
//     overlapping history (AttemptUpdate)
//   - Feature Extractor: fixed-order numeric feature vectors from
//     heterogeneous historical examples, with deterministic fallbacks for
//     parameters an example predates
//   - Backend Registry: a name → constructor table with aliases and named
//     algorithms, plus a random baseline backend as the terminal fallback
//   - Built-in backends: "random" (history-free sampling) and "bayes"
//     (Gaussian Process surrogate with UCB/PI/EI/Thompson acquisition)
//
// # Usage
//
//	params, err := tune.BuildParams([]tune.ParamSpec{
//	    tune.UniformParam("learning_rate", 0.0001, 0.1),
//	    tune.RandRangeParam("batch_size", 16, 512, 16),
//	    tune.ChoiceParam("optimizer", "sgd", "adam", "rmsprop"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry := tune.NewRegistry(tune.DefaultLogger(slog.LevelInfo))
//
//	backend, err := registry.New("bayes", history, params, tune.Options{"seed": 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lr, err := backend.Param("learning_rate", tune.Uniform, []any{0.0001, 0.1}, nil)
//
// After new trials are observed, try to reuse the backend before rebuilding:
//
//	if !backend.AttemptUpdate(history, params, tune.Options{"seed": 1}) {
//	    backend, err = registry.New("bayes", history, params, tune.Options{"seed": 1})
//	}
//
// # Examples
//
// A trial is recorded as parameter values plus exactly one of gain or loss
// (loss = -gain). The JSON wire shape is:
//
//	{"values": {"learning_rate": 0.01, "optimizer": "adam"}, "gain": 0.93}
//	{"values": {"learning_rate": 0.01, "optimizer": "adam"}, "loss": -0.93}
//
// Examples may omit parameters that did not exist when the trial ran;
// feature extraction substitutes the declaration's "placeholder_when_missing"
// kwarg, or the distribution's deterministic placeholder.
//
// # Extending
//
// New distributions register at runtime with RegisterDistribution; new
// backends register on a Registry with RegisterBackend / RegisterAlias /
// RegisterAlg. Backends able to fold new observations into existing state
// implement IncrementalBackend; everything else is rebuilt when the history
// changes shape.
//
// # Concurrency
//
// Optimization runs are single-threaded by design: each backend instance is
// exclusively owned by the run that constructed it. Registration on the
// shared tables (catalog, registry) is expected to finish during process
// initialization, before optimization requests begin.
package tune
