package integrator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSampleCount is returned when fewer than two samples are requested.
	ErrInvalidSampleCount = errors.New("integrator: sample count must be at least 2")
	// ErrNonFiniteValue is the cause of an EvaluationError for NaN or infinite values.
	ErrNonFiniteValue = errors.New("integrator: target function returned a non-finite value")
	// ErrNilFunction is returned when no target function is given.
	ErrNilFunction = errors.New("integrator: nil target function")
)

// EvaluationError reports a failure of the target function. The run is
// aborted at Sample and no partial result is returned.
type EvaluationError struct {
	Sample int
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("integrator: target function failed at sample %d: %v", e.Sample, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
