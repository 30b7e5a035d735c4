package tune

import (
	"encoding/json"
	"math"
	"reflect"
)

//////
// Helper functions.
//////

// Helper function used by PI and EI to compute the cumulative distribution
// function of the standard normal distribution.
//
// Returns:
// - Probability that a standard normal random variable is less than x.
func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// Helper function used by EI to compute the probability density function
// of the standard normal distribution.
//
// Returns:
// - Value of the standard normal PDF at x.
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
}

// unwrapScalar normalizes foreign numeric scalar types to native int/float64.
// Declarations frequently arrive from decoded JSON or from numeric-library
// wrapper types; validation and equality checks both depend on a single
// canonical representation.
//
// Rules:
//   - Signed/unsigned integer widths collapse to int.
//   - float32 widens to float64; float64 stays float64 (an integral float is
//     NOT converted to int — "1.5 vs 1" type mismatches must stay visible to
//     validation).
//   - json.Number becomes int when it parses as an integer, float64
//     otherwise.
//   - Slices and arrays are rebuilt as []any with unwrapped elements.
//   - Everything else passes through untouched.
func unwrapScalar(v any) any {
	switch x := v.(type) {
	case int:
		return x
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int(x)
		}
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return string(x)
	case string, bool, nil:
		return x
	}

	// Rebuild slices/arrays of any element type as []any.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = unwrapScalar(rv.Index(i).Interface())
		}
		return out
	}

	return v
}

// unwrapArgs applies unwrapScalar to each positional argument. Empty and nil
// argument lists normalize to nil so equality checks treat them alike.
func unwrapArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}

	out := make([]any, len(args))
	for i, a := range args {
		out[i] = unwrapScalar(a)
	}

	return out
}

// unwrapKwargs applies unwrapScalar to each kwarg value. Keys and recognized
// option values pass through otherwise unmodified. Empty and nil kwargs
// normalize to nil so equality checks treat them alike.
func unwrapKwargs(kwargs Kwargs) Kwargs {
	if len(kwargs) == 0 {
		return nil
	}

	out := make(Kwargs, len(kwargs))
	for k, v := range kwargs {
		out[k] = unwrapScalar(v)
	}

	return out
}

// asInt reports v as a native int. Floats are rejected even when integral;
// integer-only contracts (randrange) depend on that.
func asInt(v any) (int, bool) {
	i, ok := unwrapScalar(v).(int)
	return i, ok
}

// asFloat reports v as a float64, accepting both integer and float inputs.
func asFloat(v any) (float64, bool) {
	switch x := unwrapScalar(v).(type) {
	case int:
		return float64(x), true
	case float64:
		return x, true
	}

	return 0, false
}

// optionsOf reports the elements of an iterable argument (any slice or array)
// as []any. Used by the choice distribution.
func optionsOf(v any) ([]any, bool) {
	if opts, ok := v.([]any); ok {
		return opts, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}

// intOption reads an integer option with a default.
func intOption(opts Options, key string, def int) int {
	if v, ok := opts[key]; ok {
		if i, ok := asInt(v); ok {
			return i
		}
	}

	return def
}

// floatOption reads a numeric option with a default.
func floatOption(opts Options, key string, def float64) float64 {
	if v, ok := opts[key]; ok {
		if f, ok := asFloat(v); ok {
			return f
		}
	}

	return def
}

// stringOption reads a string option with a default.
func stringOption(opts Options, key string, def string) string {
	if v, ok := opts[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return def
}
