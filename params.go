package tune

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

//////
// Param Processor.
//
// Validates and canonicalizes parameter declarations against the Distribution
// Catalog. No state is retained between calls except the catalog tables.
//////

// Recognized kwarg keys.
const (
	// KwargGuess is the caller-supplied value served when a backend has no
	// value of its own.
	KwargGuess = "guess"

	// KwargPlaceholderWhenMissing overrides the catalog placeholder during
	// feature extraction for examples that predate the parameter.
	KwargPlaceholderWhenMissing = "placeholder_when_missing"
)

// Standardize validates a parameter declaration and canonicalizes it.
//
// Foreign numeric scalar types in args and kwargs (narrower integer widths,
// float32, json.Number, numeric-library wrappers decoded to such) are
// unwrapped to native int/float64 before validation. Recognized options
// ("guess", "placeholder_when_missing") pass through otherwise unmodified.
//
// Errors:
//   - ErrUnknownDistribution when spec.Func is not registered.
//   - *InvalidArgumentsError (matches ErrInvalidArguments) when spec.Args
//     violate the tag's arity/type contract.
func Standardize(spec ParamSpec) (ParamSpec, error) {
	entry, ok := lookupDistribution(spec.Func)
	if !ok {
		return ParamSpec{}, fmt.Errorf("%w: %q", ErrUnknownDistribution, spec.Func)
	}

	out := ParamSpec{
		Name:   spec.Name,
		Func:   spec.Func,
		Args:   unwrapArgs(spec.Args),
		Kwargs: unwrapKwargs(spec.Kwargs),
	}

	if entry.validate != nil {
		if err := entry.validate(out.Args); err != nil {
			return ParamSpec{}, err
		}
	}

	return out, nil
}

// ChooseDefaultPlaceholder returns the deterministic representative value for
// a distribution call: repeated calls with identical arguments return
// identical values. It is the default fallback of the Feature Extractor.
//
// The kwargs are accepted for FallbackFunc compatibility and ignored; the
// placeholder depends only on the distribution and its arguments.
//
// Errors:
//   - ErrUnknownDistribution when fn is not registered.
//   - *InvalidArgumentsError when args violate the tag's contract.
func ChooseDefaultPlaceholder(name string, fn Distribution, args []any, _ Kwargs) (any, error) {
	entry, ok := lookupDistribution(fn)
	if !ok {
		return nil, fmt.Errorf("%w: %q (parameter %q)", ErrUnknownDistribution, fn, name)
	}

	normalized := unwrapArgs(args)

	if entry.validate != nil {
		if err := entry.validate(normalized); err != nil {
			return nil, err
		}
	}

	return entry.placeholder(normalized)
}

// BuildParams standardizes a list of declarations into the name-keyed form
// backends consume, rejecting duplicate names.
//
// Errors:
//   - *ConflictingDeclarationError (matches ErrConflictingDeclaration) when
//     a name is declared more than once.
//   - Standardize errors for each declaration.
func BuildParams(specs []ParamSpec) (map[string]ParamSpec, error) {
	params := make(map[string]ParamSpec, len(specs))

	for _, spec := range specs {
		std, err := Standardize(spec)
		if err != nil {
			return nil, err
		}

		if prev, ok := params[std.Name]; ok {
			return nil, &ConflictingDeclarationError{
				Name:  std.Name,
				Funcs: []Distribution{prev.Func, std.Func},
			}
		}

		params[std.Name] = std
	}

	return params, nil
}

//////
// Declaration helpers.
//////

// RandRangeParam declares an integer parameter over an arithmetic range,
// accepting the 1-3 argument randrange forms.
func RandRangeParam[T constraints.Integer](name string, args ...T) ParamSpec {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = int(a)
	}

	return ParamSpec{Name: name, Func: Randrange, Args: out}
}

// UniformParam declares a parameter drawn uniformly from [low, high].
func UniformParam[T constraints.Integer | constraints.Float](name string, low, high T) ParamSpec {
	return ParamSpec{Name: name, Func: Uniform, Args: []any{float64(low), float64(high)}}
}

// NormalParam declares a parameter drawn from a normal distribution.
func NormalParam[T constraints.Integer | constraints.Float](name string, mu, sigma T) ParamSpec {
	return ParamSpec{Name: name, Func: Normalvariate, Args: []any{float64(mu), float64(sigma)}}
}

// ChoiceParam declares a categorical parameter over a fixed option set.
func ChoiceParam(name string, options ...any) ParamSpec {
	return ParamSpec{Name: name, Func: Choice, Args: []any{options}}
}
