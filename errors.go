package tune

import (
	"errors"
	"fmt"
)

//////
// Error taxonomy.
//
// All errors are raised synchronously at the point of detection and are never
// retried internally. Callers match them with errors.Is / errors.As.
//////

var (
	// ErrInvalidArguments indicates a distribution call with the wrong
	// arity or argument types. The concrete error is always an
	// *InvalidArgumentsError.
	ErrInvalidArguments = errors.New("invalid distribution arguments")

	// ErrUnknownDistribution indicates an unregistered distribution tag.
	ErrUnknownDistribution = errors.New("unknown distribution")

	// ErrUnsupportedFunction indicates a distribution tag outside the set
	// a backend declares it implements.
	ErrUnsupportedFunction = errors.New("unsupported distribution function")

	// ErrUnsupportedOption indicates a kwarg outside the set a backend
	// declares it supports.
	ErrUnsupportedOption = errors.New("unsupported option")

	// ErrInvalidExample indicates an example record missing its values, or
	// not carrying exactly one of gain/loss.
	ErrInvalidExample = errors.New("invalid example")

	// ErrConflictingDeclaration indicates two declarations competing for
	// one parameter name.
	ErrConflictingDeclaration = errors.New("conflicting parameter declaration")

	// ErrUnknownBackend indicates a backend name with no registered
	// constructor (after alias resolution).
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnknownAlg indicates an algorithm name with no registration.
	ErrUnknownAlg = errors.New("unknown algorithm")
)

// InvalidArgumentsError reports a distribution call whose arguments violate
// the catalog contract. It identifies the offending tag and the arguments as
// received, so validation failures are attributable.
type InvalidArgumentsError struct {
	// Func is the distribution tag whose contract was violated.
	Func Distribution

	// Args are the arguments as received.
	Args []any

	// Reason describes the specific violation.
	Reason string
}

// Error implements the error interface.
func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("%s: %s(%v): %s", ErrInvalidArguments, e.Func, e.Args, e.Reason)
}

// Unwrap makes the error match ErrInvalidArguments under errors.Is.
func (e *InvalidArgumentsError) Unwrap() error { return ErrInvalidArguments }

// invalidArgs is the internal shorthand used by catalog validators.
func invalidArgs(fn Distribution, args []any, format string, a ...any) error {
	return &InvalidArgumentsError{Func: fn, Args: args, Reason: fmt.Sprintf(format, a...)}
}

// ConflictingDeclarationError reports more than one declaration for a single
// parameter name within one run.
type ConflictingDeclarationError struct {
	// Name is the parameter name declared more than once.
	Name string

	// Funcs are the distribution tags of the competing declarations.
	Funcs []Distribution
}

// Error implements the error interface.
func (e *ConflictingDeclarationError) Error() string {
	return fmt.Sprintf("%s: %q declared as %v", ErrConflictingDeclaration, e.Name, e.Funcs)
}

// Unwrap makes the error match ErrConflictingDeclaration under errors.Is.
func (e *ConflictingDeclarationError) Unwrap() error { return ErrConflictingDeclaration }
