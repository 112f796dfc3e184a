package dynamics

import (
	"errors"
	"fmt"
)

// Domain errors for world and solver operations.
var (
	// ErrInvalidTimestep indicates a zero or negative dt.
	ErrInvalidTimestep = errors.New("dynamics: invalid timestep (must be > 0)")

	// ErrBodyNotInWorld indicates an operation on a body the world does not own.
	ErrBodyNotInWorld = errors.New("dynamics: body not registered with world")

	// ErrConstraintNotInWorld indicates an operation on an unregistered constraint.
	ErrConstraintNotInWorld = errors.New("dynamics: constraint not registered with world")

	// ErrInvalidState indicates NaN or Inf crept into a body's state.
	ErrInvalidState = errors.New("dynamics: invalid body state (NaN or Inf detected)")
)

// StepError wraps an error with tick context.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// assert panics on contract violations. Degenerate constraint
// configurations and misuse of the parameter accessors are programmer
// errors, never runtime conditions to recover from.
func assert(truth bool, msg string) {
	if !truth {
		panic(fmt.Errorf("dynamics: %s", msg))
	}
}
