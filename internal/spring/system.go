package spring

import (
	"github.com/san-kum/fabricsim/internal/dynamo"
)

// ParallelThreshold is the vertex count above which Derive fans out.
const ParallelThreshold = 512

// System is the mass-spring network over the flat buffers. State layout
// is [x0 .. xn-1, v0 .. vn-1], three components each, so position and
// velocity halves split the way Verlet and Leapfrog expect.
type System struct {
	Law     Law
	Verts   []Vertex
	Gravity Vec3

	minChunk int
}

func NewSystem(law Law, verts []Vertex, gravity Vec3) *System {
	return &System{
		Law:      law,
		Verts:    verts,
		Gravity:  gravity,
		minChunk: ParallelThreshold,
	}
}

func (s *System) StateDim() int   { return 6 * len(s.Verts) }
func (s *System) ControlDim() int { return 0 }

func (s *System) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	n := len(s.Verts)
	dx := make(dynamo.State, 6*n)
	half := 3 * n

	dynamo.ParallelFor(n, s.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			if s.Verts[i].Fixed {
				continue
			}
			a := s.Accel(i, x)
			for k := 0; k < 3; k++ {
				dx[3*i+k] = x[half+3*i+k]
				dx[half+3*i+k] = a[k]
			}
		}
	})
	return dx
}

// Accel is (Σ spring force - λ v) / m + g for slot i. The force is
// divided by the slot's own mass once.
func (s *System) Accel(i int, x dynamo.State) Vec3 {
	sv := &s.Verts[i]
	if sv.Fixed {
		return Vec3{}
	}
	vel := at(x, 3*len(s.Verts), i)

	f := s.SpringForce(i, x)
	f = f.Sub(vel.Mul(sv.Lambda))
	return f.Mul(1 / sv.Mass).Add(s.Gravity)
}

// SpringForce is the undamped elastic force on slot i.
func (s *System) SpringForce(i int, x dynamo.State) Vec3 {
	sv := &s.Verts[i]
	self := at(x, 0, i)
	var f Vec3
	for _, l := range sv.Links {
		f = f.Add(s.Law.Force(l.K, self, at(x, 0, l.Index), l.RestLen, l.RestDir))
	}
	return f
}

func at(x dynamo.State, off, i int) Vec3 {
	j := off + 3*i
	return Vec3{x[j], x[j+1], x[j+2]}
}

// Pack writes positions then velocities into dst, growing it if needed.
func Pack(pos, vel []Vec3, dst dynamo.State) dynamo.State {
	n := len(pos)
	if cap(dst) < 6*n {
		dst = make(dynamo.State, 6*n)
	}
	dst = dst[:6*n]
	for i := 0; i < n; i++ {
		copy(dst[3*i:3*i+3], pos[i][:])
		copy(dst[3*n+3*i:3*n+3*i+3], vel[i][:])
	}
	return dst
}

// Unpack is the inverse of Pack.
func Unpack(st dynamo.State, pos, vel []Vec3) {
	n := len(pos)
	for i := 0; i < n; i++ {
		copy(pos[i][:], st[3*i:3*i+3])
		copy(vel[i][:], st[3*n+3*i:3*n+3*i+3])
	}
}
