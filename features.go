package tune

import (
	"reflect"
	"sort"
)

//////
// Feature Extractor.
//
// Converts heterogeneous historical examples plus the current parameter
// declarations into fixed-order feature vectors with deterministic fallback
// values. The total order — parameter names sorted lexicographically — is the
// sole place where alignment across differently-shaped examples is
// established; every component reproduces it via SortedParamNames.
//////

// ExtractOptions tunes feature extraction for a backend's needs.
type ExtractOptions struct {
	// Fallback resolves values for parameters missing from an example that
	// carry no "placeholder_when_missing" kwarg. Nil means
	// ChooseDefaultPlaceholder.
	Fallback FallbackFunc

	// Converters remap extracted values per distribution, e.g. a choice
	// option to its index. Nil or a missing tag means no conversion.
	Converters map[Distribution]ConverterFunc

	// ConvertFallback extends conversion to fallback-derived values.
	// Explicit and placeholder values are always converted; a fallback
	// placeholder may already be expressed in the backend's units, in
	// which case leave this false.
	ConvertFallback bool
}

// SortedParamNames returns the parameter names in the canonical feature
// order: sorted lexicographically.
func SortedParamNames(params map[string]ParamSpec) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ExtractFeatures resolves one feature per parameter, in sorted-name order.
//
// Resolution per parameter:
//  1. The example's recorded value, when present.
//  2. The declaration's "placeholder_when_missing" kwarg, when present.
//  3. The fallback function (deterministic catalog placeholder by default).
//
// A registered converter for the parameter's distribution is then applied —
// to fallback-derived values only when ConvertFallback is set.
func ExtractFeatures(values map[string]any, params map[string]ParamSpec, opts ExtractOptions) ([]any, error) {
	fallback := opts.Fallback
	if fallback == nil {
		fallback = ChooseDefaultPlaceholder
	}

	names := SortedParamNames(params)
	features := make([]any, len(names))

	for i, name := range names {
		spec := params[name]

		var (
			value        any
			fromFallback bool
		)

		switch {
		case values != nil && hasKey(values, name):
			value = unwrapScalar(values[name])
		case spec.Kwargs != nil && hasKwarg(spec.Kwargs, KwargPlaceholderWhenMissing):
			value = unwrapScalar(spec.Kwargs[KwargPlaceholderWhenMissing])
		default:
			fromFallback = true

			v, err := fallback(name, spec.Func, spec.Args, spec.Kwargs)
			if err != nil {
				return nil, err
			}

			value = v
		}

		if conv, ok := opts.Converters[spec.Func]; ok && conv != nil {
			if !fromFallback || opts.ConvertFallback {
				converted, err := conv(value, spec.Args)
				if err != nil {
					return nil, err
				}

				value = converted
			}
		}

		features[i] = value
	}

	return features, nil
}

// SplitExamples extracts one feature vector and one canonical loss per
// example, aligned by index. Gains are negated into losses; negation recurses
// into nested sequences, so vector-valued objectives survive.
func SplitExamples(examples []Example, params map[string]ParamSpec, opts ExtractOptions) (features [][]any, losses []any, err error) {
	features = make([][]any, len(examples))
	losses = make([]any, len(examples))

	for i, ex := range examples {
		if err := ex.Validate(); err != nil {
			return nil, nil, err
		}

		fv, err := ExtractFeatures(ex.Values, params, opts)
		if err != nil {
			return nil, nil, err
		}

		loss, err := ex.Outcome.LossValue()
		if err != nil {
			return nil, nil, err
		}

		features[i] = fv
		losses[i] = loss
	}

	return features, losses, nil
}

//////
// Standard converters.
//////

// StandardConverters returns the converters numeric backends typically need:
// choice values map to their option index, randrange values to their
// zero-based offset within the arithmetic range.
func StandardConverters() map[Distribution]ConverterFunc {
	return map[Distribution]ConverterFunc{
		Choice:    ChoiceIndexConverter,
		Randrange: RandrangeOffsetConverter,
	}
}

// ChoiceIndexConverter maps a choice value to its index in the option set.
func ChoiceIndexConverter(value any, args []any) (any, error) {
	opts, ok := optionsOf(args[0])
	if !ok {
		return nil, invalidArgs(Choice, args, "argument must be an iterable, got %T", args[0])
	}

	needle := unwrapScalar(value)

	for i, opt := range opts {
		if reflect.DeepEqual(unwrapScalar(opt), needle) {
			return i, nil
		}
	}

	return nil, invalidArgs(Choice, args, "value %v is not one of the options", value)
}

// RandrangeOffsetConverter maps a randrange value to its zero-based offset
// within the arithmetic range.
func RandrangeOffsetConverter(value any, args []any) (any, error) {
	v, ok := asInt(value)
	if !ok {
		return nil, invalidArgs(Randrange, args, "value %v is not an integer", value)
	}

	start, _, step := randrangeBounds(args)

	return (v - start) / step, nil
}

// hasKey avoids the comma-ok ambiguity for nil-valued entries.
func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func hasKwarg(m Kwargs, key string) bool {
	_, ok := m[key]
	return ok
}
