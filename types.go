package tune

import "log/slog"

//////
// Core types shared by every component.
//////

// Distribution identifies one of the supported random-distribution functions.
// The built-in tags mirror the classic pseudo-random sampling vocabulary
// (uniform, randrange, choice, betavariate, ...); new tags can be added at
// runtime with RegisterDistribution.
type Distribution string

// Kwargs holds the optional, named settings attached to a parameter
// declaration. Recognized keys:
//
//   - "guess": a caller-supplied value served when a backend has no value of
//     its own for the parameter.
//   - "placeholder_when_missing": the value substituted during feature
//     extraction when a historical example predates the parameter.
//
// Backends may restrict the set of keys they accept; see Backend.Param.
type Kwargs map[string]any

// Options holds backend construction settings, e.g. {"seed": 42,
// "candidates": 128}. Options take part in AttemptUpdate's reuse check: a
// backend constructed with different options is never reused.
type Options map[string]any

// ServingValues maps parameter names to the values a backend resolved for the
// current run. It is populated once per backend construction (or incremental
// update) and read by Param afterwards.
type ServingValues map[string]any

// ParamSpec declares one named parameter to be optimized: the distribution it
// is drawn from, the distribution's positional arguments, and optional
// settings.
//
// Invariants:
//   - Exactly one distribution tag per spec.
//   - Args must satisfy the tag's arity/type contract (enforced by
//     Standardize).
//   - Name is unique within a single optimization run (enforced by
//     BuildParams).
//
// Usage example:
//
//	spec := tune.ParamSpec{
//	    Name: "learning_rate",
//	    Func: tune.Uniform,
//	    Args: []any{0.0001, 0.1},
//	    Kwargs: tune.Kwargs{"guess": 0.01},
//	}
type ParamSpec struct {
	// Name is the parameter's unique identifier within a run.
	Name string

	// Func is the distribution tag the parameter is drawn from.
	Func Distribution

	// Args are the distribution's positional arguments, in order.
	Args []any

	// Kwargs are the optional settings ("guess",
	// "placeholder_when_missing").
	Kwargs Kwargs
}

// FallbackFunc resolves a value for a parameter that neither the backend nor
// the caller could supply. The default fallback during feature extraction is
// ChooseDefaultPlaceholder; the default fallback during serving is a cached
// Random Backend.
type FallbackFunc func(name string, fn Distribution, args []any, kwargs Kwargs) (any, error)

// ConverterFunc remaps an extracted feature value into the representation a
// backend needs, e.g. a choice option to its index, or a randrange value to a
// zero-based offset. It receives the distribution's positional arguments.
type ConverterFunc func(value any, args []any) (any, error)

// Constructor builds a backend instance from the trial history, the declared
// parameters, and backend options. It is the registration unit of the backend
// Registry. A nil logger disables logging.
//
// Constructor-time validation errors propagate immediately; there is no
// partially constructed backend.
type Constructor func(examples []Example, params map[string]ParamSpec, opts Options, logger *slog.Logger) (Backend, error)
