package metrics

import (
	"github.com/san-kum/fabricsim/internal/fabric"
	"github.com/san-kum/fabricsim/internal/mesh"
)

// CanopyForce tracks the net pressure force on the elastic surfaces.
// Value is the peak magnitude over the run.
type CanopyForce struct {
	name string
	peak float64
	last mesh.Vec3
}

func NewCanopyForce() *CanopyForce {
	return &CanopyForce{name: "canopy_force"}
}

func (c *CanopyForce) Name() string { return c.name }

func (c *CanopyForce) Observe(s Sample) {
	if s.Interface == nil {
		return
	}
	pos, neg := fabric.TotalCanopyForce(s.Interface)
	c.last = pos.Add(neg)
	c.peak = max(c.peak, c.last.Len())
}

func (c *CanopyForce) Value() float64 { return c.peak }

// Last is the net force of the latest sample.
func (c *CanopyForce) Last() mesh.Vec3 { return c.last }

func (c *CanopyForce) Reset() {
	c.peak = 0
	c.last = mesh.Vec3{}
}
