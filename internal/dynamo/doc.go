// Package dynamo provides core simulation primitives shared by the
// structural solver.
//
//   - [State]: flat vector of system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Config]: macro step, step count and sub-step count of a run
//
// The error taxonomy of the solver also lives here. Invariant violations
// ([ErrBoundarySpring], [ErrRigidRigid], [ErrNoRigidSurface],
// [ErrUnknownCollision]) are fatal; use [IsFatal] to tell them apart from
// the non-fatal [ErrFabricFabric] notice.
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. [ParallelFor]
// is safe when each index writes only its own output slot.
package dynamo
