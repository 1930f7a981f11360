package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrCanceled indicates the run or sweep was interrupted by its context.
	ErrCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrUnstable indicates the plant state diverged to NaN or Inf.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrUnknownParam is returned by Configurable implementations.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)

// StepError wraps an error with the step at which it occurred.
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

// ValidationError reports a configuration field that cannot be simulated.
// It is raised before the first step runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dynamo: invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError with a formatted reason.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidPlantError reports a degenerate transfer function.
type InvalidPlantError struct {
	Reason string
}

func (e *InvalidPlantError) Error() string {
	return "dynamo: invalid plant: " + e.Reason
}

// Canceled wraps a context error so that both errors.Is(err, ErrCanceled)
// and errors.Is(err, context.Canceled) hold.
func Canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
