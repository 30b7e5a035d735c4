package tune

import (
	"bytes"
	"encoding/json"
	"fmt"
)

//////
// Example records.
//
// One past trial: the parameter values that were served, plus the observed
// outcome. Outcomes arrive as either a gain (higher is better) or a loss
// (lower is better); the two are related by loss = -gain.
//////

type outcomeKind uint8

const (
	outcomeUnset outcomeKind = iota
	outcomeGain
	outcomeLoss
)

// Outcome is the observed result of one trial: exactly one of gain or loss.
// The zero Outcome is unset and fails validation.
type Outcome struct {
	kind  outcomeKind
	value any
}

// Gain wraps a higher-is-better observation. Vector-valued objectives are
// supported: the value may be a nested sequence of numbers.
func Gain(v any) Outcome {
	return Outcome{kind: outcomeGain, value: unwrapScalar(v)}
}

// Loss wraps a lower-is-better observation.
func Loss(v any) Outcome {
	return Outcome{kind: outcomeLoss, value: unwrapScalar(v)}
}

// IsSet reports whether the outcome carries an observation.
func (o Outcome) IsSet() bool { return o.kind != outcomeUnset }

// IsGain reports whether the observation arrived as a gain.
func (o Outcome) IsGain() bool { return o.kind == outcomeGain }

// Value returns the observation exactly as recorded, without sign
// normalization.
func (o Outcome) Value() any { return o.value }

// LossValue converts the outcome to the canonical loss metric: losses pass
// through, gains are negated (recursively, for vector-valued objectives).
// The conversion is total over set outcomes.
func (o Outcome) LossValue() (any, error) {
	switch o.kind {
	case outcomeLoss:
		return o.value, nil
	case outcomeGain:
		return NegateObjective(o.value)
	}

	return nil, fmt.Errorf("%w: outcome not set", ErrInvalidExample)
}

// GainValue is the mirror of LossValue.
func (o Outcome) GainValue() (any, error) {
	switch o.kind {
	case outcomeGain:
		return o.value, nil
	case outcomeLoss:
		return NegateObjective(o.value)
	}

	return nil, fmt.Errorf("%w: outcome not set", ErrInvalidExample)
}

// NegateObjective flips the sign of a scalar objective, recursing into nested
// sequences so vector-valued objectives negate element-wise. Applying it
// twice returns the original value.
func NegateObjective(v any) (any, error) {
	switch x := unwrapScalar(v).(type) {
	case int:
		return -x, nil
	case float64:
		return -x, nil
	case []any:
		out := make([]any, len(x))

		for i, e := range x {
			neg, err := NegateObjective(e)
			if err != nil {
				return nil, err
			}

			out[i] = neg
		}

		return out, nil
	}

	return nil, fmt.Errorf("%w: objective must be numeric or a sequence of numerics, got %T", ErrInvalidExample, v)
}

// Example is one historical trial: served parameter values plus the observed
// outcome. Examples may omit parameters that did not exist when the trial
// ran; the Feature Extractor fills those with deterministic placeholders.
//
// Wire shape:
//
//	{"values": {"x": 0.3, "mode": "fast"}, "gain": 12.5}
//	{"values": {"x": 0.3, "mode": "fast"}, "loss": -12.5}
//
// Exactly one of gain/loss must be present.
type Example struct {
	// Values maps parameter names to the values that were served.
	Values map[string]any

	// Outcome is the observed gain or loss.
	Outcome Outcome
}

// Validate checks the exactly-one-of-gain/loss and values-present invariants.
func (e Example) Validate() error {
	if e.Values == nil {
		return fmt.Errorf("%w: missing values", ErrInvalidExample)
	}

	if !e.Outcome.IsSet() {
		return fmt.Errorf("%w: exactly one of gain or loss required", ErrInvalidExample)
	}

	return nil
}

// MarshalJSON writes the wire shape.
func (e Example) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	m := map[string]any{"values": e.Values}

	if e.Outcome.IsGain() {
		m["gain"] = e.Outcome.value
	} else {
		m["loss"] = e.Outcome.value
	}

	return json.Marshal(m)
}

// UnmarshalJSON reads the wire shape, rejecting records with both or neither
// of gain/loss, or with missing values. Numbers are decoded without float
// coercion, so integer-valued parameters survive a round trip.
func (e *Example) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	valuesRaw, ok := raw["values"]
	if !ok {
		return fmt.Errorf("%w: missing values", ErrInvalidExample)
	}

	gainRaw, hasGain := raw["gain"]
	lossRaw, hasLoss := raw["loss"]

	if hasGain == hasLoss {
		return fmt.Errorf("%w: exactly one of gain or loss required", ErrInvalidExample)
	}

	values, err := decodeNumberTree(valuesRaw)
	if err != nil {
		return err
	}

	valueMap, ok := values.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: values must be an object", ErrInvalidExample)
	}

	var outcome Outcome

	if hasGain {
		v, err := decodeNumberTree(gainRaw)
		if err != nil {
			return err
		}

		outcome = Gain(v)
	} else {
		v, err := decodeNumberTree(lossRaw)
		if err != nil {
			return err
		}

		outcome = Loss(v)
	}

	e.Values = valueMap
	e.Outcome = outcome

	return nil
}

// decodeNumberTree decodes JSON preserving integer values as int, then
// normalizes the result with unwrapScalar.
func decodeNumberTree(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if m, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, mv := range m {
			out[k] = unwrapScalar(mv)
		}

		return out, nil
	}

	return unwrapScalar(v), nil
}
