package integrators

import "github.com/san-kum/fabricsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta step. Stage buffers are
// kept between calls and reallocated only when the state size changes.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

// axpy writes x + h*k into dst.
func axpy(dst, x, k dynamo.State, h float64) {
	for i := range x {
		dst[i] = x[i] + h*k[i]
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)
	half := 0.5 * dt

	copy(r.k[0], dyn.Derive(x, u, t))
	axpy(r.scratch, x, r.k[0], half)
	copy(r.k[1], dyn.Derive(r.scratch, u, t+half))
	axpy(r.scratch, x, r.k[1], half)
	copy(r.k[2], dyn.Derive(r.scratch, u, t+half))
	axpy(r.scratch, x, r.k[2], dt)
	copy(r.k[3], dyn.Derive(r.scratch, u, t+dt))

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}
