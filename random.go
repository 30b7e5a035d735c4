package tune

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

//////
// Random Backend.
//
// The terminal fallback and a fully valid standalone backend: no history
// dependency, every parameter draws directly from its distribution's
// sampling primitive.
//////

// RandomBackendName is the registry name of the Random Backend.
const RandomBackendName = "random"

// RandomBackend serves parameters by sampling their declared distributions.
// It holds no model state, so AttemptUpdate always succeeds trivially — it
// never needs reconstruction.
type RandomBackend struct {
	baseBackend

	// mu guards src; rand sources are not safe for concurrent use.
	mu  sync.Mutex
	src rand.Source
}

// NewRandomBackend constructs a Random Backend. History and params are
// accepted for Constructor compatibility; only the optional "seed" option is
// consulted. CurrentValues stays empty — every Param call draws fresh.
func NewRandomBackend(examples []Example, params map[string]ParamSpec, opts Options, logger *slog.Logger) (Backend, error) {
	base, err := newBaseBackend(RandomBackendName, examples, params, opts, logger)
	if err != nil {
		return nil, err
	}

	seed := uint64(intOption(opts, "seed", 0))
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	b := &RandomBackend{
		baseBackend: base,
		src:         rand.NewPCG(seed, seed),
	}

	b.bindSelf(b)

	return b, nil
}

// Param draws directly from the named distribution's sampler. Arguments are
// validated against the catalog contract on every call.
func (b *RandomBackend) Param(name string, fn Distribution, args []any, kwargs Kwargs) (any, error) {
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

	if entry.sample == nil {
		return nil, fmt.Errorf("%w: %q has no sampler", ErrUnsupportedFunction, fn)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return entry.sample(b.src, normalized)
}

// AttemptUpdate always succeeds: there is no internal state to invalidate.
func (b *RandomBackend) AttemptUpdate([]Example, map[string]ParamSpec, Options) bool {
	return true
}
