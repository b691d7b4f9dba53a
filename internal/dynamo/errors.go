package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched buffer/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrBoundarySpring indicates a spring traversal reached a side flagged
	// as lying on a curve while assembling a surface-interior point.
	ErrBoundarySpring = errors.New("dynamo: spring crosses a flagged boundary side")

	// ErrRigidRigid indicates a crossing between two rigid surfaces.
	ErrRigidRigid = errors.New("dynamo: rigid-rigid collision not implemented")

	// ErrNoRigidSurface indicates a fabric-rigid crossing without a rigid surface.
	ErrNoRigidSurface = errors.New("dynamo: cannot find rigid body surface")

	// ErrUnknownCollision indicates a crossing with an unrecognized surface pairing.
	ErrUnknownCollision = errors.New("dynamo: unknown collision type")

	// ErrFabricFabric marks a fabric-fabric crossing. It is never fatal:
	// the crossing is reported and left unresolved for the step.
	ErrFabricFabric = errors.New("dynamo: fabric-fabric collision not implemented")
)

// IsFatal reports whether err belongs to the class of invariant
// violations that must terminate the run.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrFabricFabric):
		return false
	case errors.Is(err, ErrBoundarySpring),
		errors.Is(err, ErrRigidRigid),
		errors.Is(err, ErrNoRigidSurface),
		errors.Is(err, ErrUnknownCollision):
		return true
	}
	return false
}

// StepError wraps an error with simulation context.
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
