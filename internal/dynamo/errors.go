package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration and search operations.
var (
	// ErrNonFinite indicates the stepper could not produce a finite state,
	// even at the minimum step.
	ErrNonFinite = errors.New("dynamo: non-finite state (NaN or Inf detected)")

	// ErrDegradedStep indicates a step was accepted at the minimum step size
	// while the error estimate was still above tolerance.
	ErrDegradedStep = errors.New("dynamo: step accepted at minimum size above tolerance")

	// ErrNoBracket indicates a root finder was given an interval without a sign change.
	ErrNoBracket = errors.New("dynamo: interval does not bracket a root")

	// ErrInvalidConfig indicates an integration configuration with inconsistent values.
	ErrInvalidConfig = errors.New("dynamo: invalid integration configuration")

	// ErrZeroSection indicates a transverse section whose endpoints coincide.
	ErrZeroSection = errors.New("dynamo: transverse section has zero length")

	// ErrInvalidGrid indicates a grid spacing outside its admissible bounds.
	ErrInvalidGrid = errors.New("dynamo: grid spacing out of bounds")

	// ErrCanceled indicates the caller requested a stop.
	ErrCanceled = errors.New("dynamo: canceled by caller")

	// ErrMalformedCurve indicates a curve table that could not be parsed.
	ErrMalformedCurve = errors.New("dynamo: malformed curve table")

	// ErrUnknownChart indicates an unknown chart or view name.
	ErrUnknownChart = errors.New("dynamo: unknown chart")
)

// IntegrationError wraps an error with integration context.
type IntegrationError struct {
	Step    int
	Chart   Chart
	Point   Point
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("step %d (chart %s): %v", e.Step, e.Chart, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
