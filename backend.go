package tune

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
)

//////
// Backend contract.
//
// A backend is a pluggable strategy that serves parameter values, optionally
// informed by historical examples. Each instance is exclusively owned by the
// run that constructed it; AttemptUpdate and TellExamples mutate only that
// instance's own state.
//////

// Backend is the capability set every optimization strategy must satisfy.
type Backend interface {
	// Name returns the backend's registered name.
	Name() string

	// CurrentValues exposes the values resolved at construction (or by the
	// last successful update). Read-only for callers.
	CurrentValues() ServingValues

	// Param serves one value for a named parameter. The serving algorithm:
	//
	//  1. The backend's current value for the name, when present.
	//  2. The "guess" kwarg, when present.
	//  3. The backend's fallback function (by default a cached Random
	//     Backend).
	//
	// Before resolving, the call is validated against the backend's
	// declared restrictions: a distribution outside its implemented set
	// fails with ErrUnsupportedFunction, a kwarg outside its supported set
	// with ErrUnsupportedOption.
	Param(name string, fn Distribution, args []any, kwargs Kwargs) (any, error)

	// AttemptUpdate is the caching/reuse check. It returns true only when
	// the backend supports incremental update, params and options are
	// unchanged from construction, and the previously seen history is an
	// unchanged prefix of examples; it then feeds exactly the new suffix
	// to TellExamples. Any ordinary mismatch returns false — the caller
	// must reconstruct the backend from scratch. It never returns an
	// error.
	AttemptUpdate(examples []Example, params map[string]ParamSpec, opts Options) bool
}

// IncrementalBackend marks backends able to fold newly observed examples into
// their state without reconstruction. Capability is detected by type
// assertion; backends that cannot support it simply do not implement the
// interface.
type IncrementalBackend interface {
	Backend

	// TellExamples incrementally updates internal state and the serving
	// values given only the newly observed examples, not the full history.
	TellExamples(newExamples []Example, params map[string]ParamSpec) error
}

// baseBackend carries the state and serving algorithm shared by concrete
// backends. Embedders must call bindSelf with the outer value so capability
// checks see the concrete type.
type baseBackend struct {
	name   string
	id     string
	logger *slog.Logger

	// implementedFuncs restricts the distribution tags the backend serves;
	// nil means unrestricted.
	implementedFuncs map[Distribution]bool

	// supportedKwargs restricts the kwargs the backend accepts; nil means
	// unrestricted.
	supportedKwargs map[string]bool

	currentValues ServingValues

	// Construction-time state, normalized, for AttemptUpdate's reuse
	// check.
	examples []Example
	params   map[string]ParamSpec
	opts     Options

	// fallbackFn overrides the default fallback; fallback caches the
	// default Random Backend per instance.
	fallbackFn FallbackFunc
	fallback   Backend

	self Backend
}

// newBaseBackend normalizes and records the construction inputs. Params are
// standardized (validation errors propagate — no partial construction),
// examples validated and copied, options unwrapped.
func newBaseBackend(name string, examples []Example, params map[string]ParamSpec, opts Options, logger *slog.Logger) (baseBackend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	normParams, err := normalizeParams(params)
	if err != nil {
		return baseBackend{}, err
	}

	normExamples, err := normalizeExamples(examples)
	if err != nil {
		return baseBackend{}, err
	}

	b := baseBackend{
		name:          name,
		id:            uuid.NewString(),
		logger:        logger,
		currentValues: make(ServingValues, len(normParams)),
		examples:      normExamples,
		params:        normParams,
		opts:          normalizeOptions(opts),
	}

	logger.Debug("backend constructed",
		"backend", name,
		"id", b.id,
		"params", len(normParams),
		"examples", len(normExamples))

	return b, nil
}

// bindSelf records the outer backend value for capability detection.
func (b *baseBackend) bindSelf(self Backend) { b.self = self }

// Name implements Backend.
func (b *baseBackend) Name() string { return b.name }

// CurrentValues implements Backend.
func (b *baseBackend) CurrentValues() ServingValues { return b.currentValues }

// Param implements the serving algorithm. See Backend.Param.
func (b *baseBackend) Param(name string, fn Distribution, args []any, kwargs Kwargs) (any, error) {
	if b.implementedFuncs != nil && !b.implementedFuncs[fn] {
		return nil, fmt.Errorf("%w: %q does not implement %q", ErrUnsupportedFunction, b.name, fn)
	}

	if b.supportedKwargs != nil {
		for k := range kwargs {
			if !b.supportedKwargs[k] {
				return nil, fmt.Errorf("%w: %q does not support %q", ErrUnsupportedOption, b.name, k)
			}
		}
	}

	if v, ok := b.currentValues[name]; ok {
		return v, nil
	}

	if g, ok := kwargs[KwargGuess]; ok {
		return unwrapScalar(g), nil
	}

	return b.fallbackResolve(name, fn, args, kwargs)
}

// fallbackResolve consults the fallback function, constructing and caching
// the default Random Backend on first use. Every parameter always resolves to
// some value, even under partial backend coverage.
func (b *baseBackend) fallbackResolve(name string, fn Distribution, args []any, kwargs Kwargs) (any, error) {
	b.logger.Debug("serving fallback value", "backend", b.name, "id", b.id, "param", name, "func", fn)

	if b.fallbackFn != nil {
		return b.fallbackFn(name, fn, args, kwargs)
	}

	if b.fallback == nil {
		fb, err := NewRandomBackend(nil, nil, nil, b.logger)
		if err != nil {
			return nil, err
		}

		b.fallback = fb
	}

	return b.fallback.Param(name, fn, args, nil)
}

// AttemptUpdate implements the reuse check. See Backend.AttemptUpdate.
func (b *baseBackend) AttemptUpdate(examples []Example, params map[string]ParamSpec, opts Options) bool {
	inc, ok := b.self.(IncrementalBackend)
	if !ok {
		b.logger.Debug("reuse rejected: backend is not incremental", "backend", b.name, "id", b.id)
		return false
	}

	normParams, err := normalizeParams(params)
	if err != nil || !paramsLooselyEqual(b.params, normParams) {
		b.logger.Debug("reuse rejected: params changed", "backend", b.name, "id", b.id)
		return false
	}

	if !mapLooselyEqual(b.opts, normalizeOptions(opts)) {
		b.logger.Debug("reuse rejected: options changed", "backend", b.name, "id", b.id)
		return false
	}

	if len(examples) < len(b.examples) {
		b.logger.Debug("reuse rejected: history shrank", "backend", b.name, "id", b.id)
		return false
	}

	normExamples, err := normalizeExamples(examples)
	if err != nil {
		b.logger.Debug("reuse rejected: invalid examples", "backend", b.name, "id", b.id)
		return false
	}

	for i := range b.examples {
		if !examplesLooselyEqual(b.examples[i], normExamples[i]) {
			b.logger.Debug("reuse rejected: history prefix changed", "backend", b.name, "id", b.id, "index", i)
			return false
		}
	}

	suffix := examples[len(b.examples):]

	if err := inc.TellExamples(suffix, params); err != nil {
		b.logger.Debug("reuse rejected: incremental update failed", "backend", b.name, "id", b.id, "error", err)
		return false
	}

	b.logger.Debug("backend reused", "backend", b.name, "id", b.id, "new_examples", len(suffix))

	return true
}

// recordExamples extends the seen history. TellExamples implementations call
// it after a successful update so later prefix checks see the full history.
func (b *baseBackend) recordExamples(newExamples []Example) error {
	norm, err := normalizeExamples(newExamples)
	if err != nil {
		return err
	}

	b.examples = append(b.examples, norm...)

	return nil
}

//////
// Normalization and loose equality for the reuse check.
//
// Params, options, and example values are compared in unwrapped form, with
// numerics compared by value, so a float-vs-integer representation difference
// never causes a false cache miss.
//////

// looselyEqual compares two normalized values, treating numerics by value
// (uniform(0, 1) equals uniform(0.0, 1.0)) and recursing into []any and
// map[string]any. Everything else falls back to reflect.DeepEqual.
func looselyEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		bf, okb := asFloat(b)
		return okb && af == bf
	}

	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}

		for i := range x {
			if !looselyEqual(x[i], y[i]) {
				return false
			}
		}

		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}

		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !looselyEqual(xv, yv) {
				return false
			}
		}

		return true
	}

	return reflect.DeepEqual(a, b)
}

// mapLooselyEqual compares string-keyed maps (Options, Kwargs) with
// looselyEqual values. Nil and empty compare equal.
func mapLooselyEqual[M ~map[string]any](a, b M) bool {
	if len(a) != len(b) {
		return false
	}

	for k, av := range a {
		bv, ok := b[k]
		if !ok || !looselyEqual(av, bv) {
			return false
		}
	}

	return true
}

func argsLooselyEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !looselyEqual(a[i], b[i]) {
			return false
		}
	}

	return true
}

func specsLooselyEqual(a, b ParamSpec) bool {
	return a.Func == b.Func &&
		argsLooselyEqual(a.Args, b.Args) &&
		mapLooselyEqual(a.Kwargs, b.Kwargs)
}

func paramsLooselyEqual(a, b map[string]ParamSpec) bool {
	if len(a) != len(b) {
		return false
	}

	for name, as := range a {
		bs, ok := b[name]
		if !ok || !specsLooselyEqual(as, bs) {
			return false
		}
	}

	return true
}

func examplesLooselyEqual(a, b Example) bool {
	return a.Outcome.kind == b.Outcome.kind &&
		looselyEqual(a.Outcome.value, b.Outcome.value) &&
		mapLooselyEqual(a.Values, b.Values)
}

func normalizeParams(params map[string]ParamSpec) (map[string]ParamSpec, error) {
	out := make(map[string]ParamSpec, len(params))

	for name, spec := range params {
		if spec.Name == "" {
			spec.Name = name
		}

		std, err := Standardize(spec)
		if err != nil {
			return nil, err
		}

		out[name] = std
	}

	return out, nil
}

func normalizeOptions(opts Options) Options {
	if len(opts) == 0 {
		return nil
	}

	out := make(Options, len(opts))
	for k, v := range opts {
		out[k] = unwrapScalar(v)
	}

	return out
}

func normalizeExamples(examples []Example) ([]Example, error) {
	if len(examples) == 0 {
		return nil, nil
	}

	out := make([]Example, len(examples))

	for i, ex := range examples {
		if err := ex.Validate(); err != nil {
			return nil, err
		}

		values := make(map[string]any, len(ex.Values))
		for k, v := range ex.Values {
			values[k] = unwrapScalar(v)
		}

		out[i] = Example{
			Values:  values,
			Outcome: Outcome{kind: ex.Outcome.kind, value: unwrapScalar(ex.Outcome.value)},
		}
	}

	return out, nil
}
