package integrators

import "github.com/san-kum/fabricsim/internal/dynamo"

// Euler is the explicit forward step x += dt f(x).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// SemiImplicitEuler updates velocities first and moves positions with
// the new velocities. It needs the half-split [positions, velocities]
// layout.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (s *SemiImplicitEuler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	half := len(x) / 2
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + dt*dx[half+i]
		// dx[i] is the old velocity for free slots and zero for pinned
		// ones, so this is x + dt*vNew without moving pinned slots.
		result[i] = x[i] + dt*(dx[i]+dt*dx[half+i])
	}
	return result
}
