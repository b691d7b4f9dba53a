package fabric

import (
	"github.com/san-kum/fabricsim/internal/mesh"
)

// SpeedReport is the fastest point after post-processing.
type SpeedReport struct {
	Max    float64
	At     Vec3
	Vertex mesh.VertexID
}

// PostProcessor projects velocities onto the local normal around the
// persisted impulse and smooths surface-interior points.
type PostProcessor struct {
	Layers int

	slot map[mesh.VertexID]int
	prev []Vec3
}

// Process projects, smooths and writes the result to both side states
// and to the structural velocity of every point.
func (pp *PostProcessor) Process(pts []*mesh.Vertex) SpeedReport {
	pp.Project(pts)
	pp.Smooth(pts)

	rep := SpeedReport{Max: -1}
	for _, v := range pts {
		v.Vel = v.Left.Vel
		if s := v.Vel.Len(); s > rep.Max {
			rep = SpeedReport{Max: s, At: v.Pos, Vertex: v.ID}
		}
	}
	if rep.Max < 0 {
		return SpeedReport{}
	}
	return rep
}

// Project sets vel = impulse + (v·n)n on points with a surface normal and
// keeps the raw velocity on points without one, such as string lines and
// the load node.
func (pp *PostProcessor) Project(pts []*mesh.Vertex) {
	for _, v := range pts {
		vel := v.Vel
		if n, ok := mesh.NormalAtPoint(v); ok {
			vel = v.Impulse.Add(n.Mul(v.Vel.Dot(n)))
		}
		v.Left.Vel = vel
		v.Right.Vel = vel
	}
}

// Smooth runs Layers rounds of first-ring averaging over
// surface-interior points. Every round reads a snapshot of the previous
// one.
func (pp *PostProcessor) Smooth(pts []*mesh.Vertex) {
	if pp.Layers == 0 {
		return
	}
	if pp.slot == nil {
		pp.slot = make(map[mesh.VertexID]int, len(pts))
	}
	clear(pp.slot)
	for i, v := range pts {
		pp.slot[v.ID] = i
	}
	if cap(pp.prev) < len(pts) {
		pp.prev = make([]Vec3, len(pts))
	}
	prev := pp.prev[:len(pts)]

	for layer := 0; layer < pp.Layers; layer++ {
		for i, v := range pts {
			prev[i] = v.Left.Vel
		}
		for _, v := range pts {
			if v.Boundary || len(v.Tris()) == 0 {
				continue
			}
			ring := mesh.RingPoints(v, v.Tris()[0].Surf)
			var sum Vec3
			count := 0
			for _, nb := range ring {
				if j, ok := pp.slot[nb.ID]; ok {
					sum = sum.Add(prev[j])
					count++
				}
			}
			if count == 0 {
				continue
			}
			avg := sum.Mul(1 / float64(count))
			v.Left.Vel = avg
			v.Right.Vel = avg
		}
	}
}
