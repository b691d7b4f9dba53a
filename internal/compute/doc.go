// Package compute provides the backends that run the sub-stepped spring
// kernel.
//
//   - CPU: sequential sub-steps of any integrator from package
//     integrators, with per-slot force evaluation fanned out for large
//     groups
//   - CUDA: the whole sub-step loop on the device (build tag cuda)
//
// Both take the same flat position and velocity buffers and are
// interchangeable:
//
//	backend := compute.GetBackend()
//	err := backend.SpringSolve(sys, pos, vel, nSub, dt)
//
// Build with CUDA support:
//
//	go build -tags cuda ./...
package compute
