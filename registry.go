package tune

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

//////
// Backend Registry & fallback chain.
//
// A name → constructor table plus algorithm registrations (backend name +
// fixed option set) and aliases. The registry is an explicit object: build it
// once at startup, register any custom backends, and pass it to whatever
// constructs backends. Registration is append-only and assumed to finish
// before optimization runs begin.
//////

// Algorithm binds a backend name to a fixed option set, giving a ready-made
// search strategy a name of its own.
type Algorithm struct {
	// Backend is the canonical backend name the algorithm runs on.
	Backend string

	// Options are the fixed construction options.
	Options Options
}

// Registry resolves backend and algorithm names to constructors. Lookups are
// simple key resolution; registering an existing key overwrites it.
type Registry struct {
	mu     sync.RWMutex
	logger *slog.Logger

	constructors map[string]Constructor
	aliases      map[string]string
	algs         map[string]Algorithm
}

// NewRegistry builds a registry with the built-in backends pre-registered:
//
//	backends:   "random" (alias "rand"), "bayes" (alias "gp")
//	algorithms: "random_search", "bayes_ucb", "bayes_pi", "bayes_ei"
//
// A nil logger disables logging.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Registry{
		logger:       logger,
		constructors: make(map[string]Constructor),
		aliases:      make(map[string]string),
		algs:         make(map[string]Algorithm),
	}

	r.RegisterBackend(RandomBackendName, NewRandomBackend)
	r.RegisterAlias("rand", RandomBackendName)
	r.RegisterAlg("random_search", RandomBackendName, nil)

	r.RegisterBackend(BayesBackendName, NewBayesBackend)
	r.RegisterAlias("gp", BayesBackendName)
	r.RegisterAlg("bayes_ucb", BayesBackendName, Options{"acquisition": AcquisitionUCB})
	r.RegisterAlg("bayes_pi", BayesBackendName, Options{"acquisition": AcquisitionPI})
	r.RegisterAlg("bayes_ei", BayesBackendName, Options{"acquisition": AcquisitionEI})

	return r
}

// RegisterBackend adds (or overwrites) a backend constructor.
func (r *Registry) RegisterBackend(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.constructors[name] = ctor

	r.logger.Debug("backend registered", "backend", name)
}

// RegisterAlias maps an alternate name onto a canonical backend name.
func (r *Registry) RegisterAlias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.aliases[alias] = name

	r.logger.Debug("backend alias registered", "alias", alias, "backend", name)
}

// RegisterAlg names an algorithm: a backend plus a fixed option set.
func (r *Registry) RegisterAlg(alg, backendName string, opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.algs[alg] = Algorithm{Backend: backendName, Options: opts}

	r.logger.Debug("algorithm registered", "alg", alg, "backend", backendName)
}

// Resolve maps a possibly aliased name to its canonical backend name. Unknown
// names resolve to themselves; New reports those as ErrUnknownBackend.
func (r *Registry) Resolve(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}

	return name
}

// New constructs a backend by (possibly aliased) name.
func (r *Registry) New(name string, examples []Example, params map[string]ParamSpec, opts Options) (Backend, error) {
	canonical := r.Resolve(name)

	r.mu.RLock()
	ctor, ok := r.constructors[canonical]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	return ctor(examples, params, opts, r.logger)
}

// NewForAlg constructs the backend a named algorithm runs on, with the
// algorithm's fixed options.
func (r *Registry) NewForAlg(alg string, examples []Example, params map[string]ParamSpec) (Backend, error) {
	r.mu.RLock()
	a, ok := r.algs[alg]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlg, alg)
	}

	return r.New(a.Backend, examples, params, a.Options)
}

// Backends lists the registered backend names, sorted.
func (r *Registry) Backends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// Algs lists the registered algorithm names, sorted.
func (r *Registry) Algs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.algs))
	for name := range r.algs {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// DefaultLogger returns a tinted stderr logger at the given level, suitable
// for passing to NewRegistry and backend constructors.
func DefaultLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
