package integrators

import "github.com/san-kum/fabricsim/internal/dynamo"

// Verlet and Leapfrog expect the half-split layout: positions in the
// first half of the state, velocities in the second. Positions advance
// with the position rate from Derive, so slots the system pins stay put.

// Verlet is velocity Verlet.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, u, t)
	for i := 0; i < half; i++ {
		result[i] = x[i] + dx[i]*dt + 0.5*dx[half+i]*dt*dt
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	dxNew := dyn.Derive(v.scratch, u, t+dt)
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + 0.5*dt*(dx[half+i]+dxNew[half+i])
	}
	return result
}

// Leapfrog is kick-drift-kick.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, u, t)
	for i := 0; i < half; i++ {
		kick := 0.5 * dt * dx[half+i]
		l.scratch[half+i] = x[half+i] + kick
		result[i] = x[i] + (dx[i]+kick)*dt
		l.scratch[i] = result[i]
	}

	dxNew := dyn.Derive(l.scratch, u, t+dt)
	for i := 0; i < half; i++ {
		result[half+i] = l.scratch[half+i] + 0.5*dt*dxNew[half+i]
	}
	return result
}
