package fabric

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/fabricsim/internal/compute"
	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

// StepReport summarizes one Advance call.
type StepReport struct {
	NumVerts int
	Resized  bool
	Speed    SpeedReport
	COM      CenterOfMass
}

// Propagator is the mass-spring integrator context. Its buffers are
// allocated on the first call and grow when the group does; they never
// shrink.
type Propagator struct {
	Law     spring.Law
	Backend compute.Backend
	Log     logr.Logger
	// Verify checks the kernel's spring links against forces assembled
	// from the mesh before every solve.
	Verify bool

	initialized bool
	points      []*mesh.Vertex
	index       map[mesh.VertexID]int
	pos, vel    []Vec3
	verts       []spring.Vertex
	sys         *spring.System
	state       dynamo.State
	post        PostProcessor
}

// NewPropagator returns a context using backend, or the active backend
// when nil.
func NewPropagator(law spring.Law, backend compute.Backend, log logr.Logger) *Propagator {
	if backend == nil {
		backend = compute.GetBackend()
	}
	return &Propagator{Law: law, Backend: backend, Log: log}
}

// Capacity is the current length of the grow-only buffers.
func (p *Propagator) Capacity() int { return len(p.pos) }

// Points returns the gathered vertices in buffer order.
func (p *Propagator) Points() []*mesh.Vertex { return p.points }

// Slot returns the buffer slot of v from the last gather.
func (p *Propagator) Slot(v *mesh.Vertex) (int, bool) {
	i, ok := p.index[v.ID]
	return i, ok
}

// Positions and Velocities expose the live slices of the flat buffers.
func (p *Propagator) Positions() []Vec3  { return p.pos[:len(p.points)] }
func (p *Propagator) Velocities() []Vec3 { return p.vel[:len(p.points)] }

// ensure grows the buffers to hold n slots and reports whether it had to.
func (p *Propagator) ensure(n int) bool {
	if !p.initialized {
		p.index = make(map[mesh.VertexID]int, n)
		p.initialized = true
	}
	if n <= len(p.pos) {
		return false
	}
	p.pos = make([]Vec3, n)
	p.vel = make([]Vec3, n)
	verts := make([]spring.Vertex, n)
	copy(verts, p.verts)
	p.verts = verts
	return true
}

// Gather walks the group, fills the slot index and copies positions and
// velocities into the flat buffers. It returns whether the buffers grew.
func (p *Propagator) Gather(g *Group) bool {
	pts := g.Points()
	resized := p.ensure(len(pts))
	p.points = pts
	clear(p.index)
	for i, v := range pts {
		p.index[v.ID] = i
		p.pos[i] = v.Pos
		p.vel[i] = v.Vel
	}
	return resized
}

// Scatter writes the flat buffers back to the gathered vertices.
func (p *Propagator) Scatter() {
	for i, v := range p.points {
		v.Pos = p.pos[i]
		v.Vel = p.vel[i]
	}
}

func (p *Propagator) classify(g *Group) error {
	var err error
	slot := 0
	g.each(func(v *mesh.Vertex, o owner) {
		if err != nil {
			return
		}
		err = describe(&p.verts[slot], v, o, g, p.index)
		slot++
	})
	return err
}

// Advance moves the group by one macro step of g.Params.Dt.
func (p *Propagator) Advance(ctx context.Context, g *Group) (*StepReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.Params.Validate(); err != nil {
		return nil, fmt.Errorf("group params: %w", err)
	}

	resized := p.Gather(g)
	if resized {
		p.Log.V(1).Info("resized buffers", "slots", len(p.pos))
	}
	if err := p.classify(g); err != nil {
		return nil, err
	}

	n := len(p.points)
	if p.sys == nil {
		p.sys = spring.NewSystem(p.Law, nil, g.Params.Gravity)
	}
	p.sys.Law = p.Law
	p.sys.Gravity = g.Params.Gravity
	p.sys.Verts = p.verts[:n]

	if p.Verify {
		if err := p.checkForces(g.Params.Ks); err != nil {
			return nil, err
		}
	}

	if err := p.Backend.SpringSolve(p.sys, p.pos[:n], p.vel[:n], g.Params.NSub, g.Params.Dt); err != nil {
		return nil, fmt.Errorf("%s kernel: %w", p.Backend.Name(), err)
	}

	p.Scatter()
	com := ComputeCenterOfMass(g)
	p.updateImpulse()

	p.post.Layers = g.Params.SmoothLayers
	speed := p.post.Process(p.points)

	rep := &StepReport{NumVerts: n, Resized: resized, Speed: speed, COM: com}
	p.Log.V(1).Info("advanced", "verts", n, "maxSpeed", speed.Max, "at", speed.At, "com", com.Pos)
	return rep, nil
}

// updateImpulse keeps the tangential part of the new velocity for points
// on a surface and the whole velocity elsewhere. With no other writer of
// the impulse between here and Project, projection hands surface points
// back their kernel velocity; a coupled solver that sets Impulse itself
// and calls PostProcessor.Process gets its tangential velocity kept and
// the structural normal velocity added.
func (p *Propagator) updateImpulse() {
	for _, v := range p.points {
		n, ok := mesh.NormalAtPoint(v)
		if !ok {
			v.Impulse = v.Vel
			continue
		}
		v.Impulse = v.Vel.Sub(n.Mul(v.Vel.Dot(n)))
	}
}

const forceTol = 1e-9

// ErrForceMismatch reports kernel spring links that disagree with the mesh.
var ErrForceMismatch = errors.New("fabric: kernel force differs from mesh force")

// checkForces compares the kernel force of every free surface-interior
// point with the force assembled from its triangle ring.
func (p *Propagator) checkForces(ks float64) error {
	n := len(p.points)
	p.state = spring.Pack(p.pos[:n], p.vel[:n], p.state)
	asm := spring.NewAssembler(p.Law)
	worst := 0.0
	for i, v := range p.points {
		if v.Boundary || v.Registered || len(v.Tris()) == 0 {
			continue
		}
		want, err := asm.ForceAtPoint(v, v.Tris()[0], ks)
		if err != nil {
			return err
		}
		got := p.sys.SpringForce(i, p.state)
		d := got.Sub(want).Len()
		if d > forceTol*(1+want.Len()) {
			return fmt.Errorf("point %s: kernel force %v, mesh force %v: %w", v, got, want, ErrForceMismatch)
		}
		worst = max(worst, d)
	}
	p.Log.V(2).Info("checked forces", "maxDiff", worst)
	return nil
}
