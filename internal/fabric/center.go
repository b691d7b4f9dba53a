package fabric

import (
	"github.com/san-kum/fabricsim/internal/mesh"
)

type CenterOfMass struct {
	Pos  Vec3
	Vel  Vec3
	Mass float64
}

// ComputeCenterOfMass averages the canopy triangles' mean position and
// velocity weighted by area, then combines the canopy, of mass area
// density times area, with the payload at the load node.
func ComputeCenterOfMass(g *Group) CenterOfMass {
	var pos, vel Vec3
	area := 0.0
	for _, s := range g.Surfaces {
		for _, t := range s.Tris {
			a := t.Area()
			var tp, tv Vec3
			for _, v := range t.V {
				tp = tp.Add(v.Pos)
				tv = tv.Add(v.Vel)
			}
			pos = pos.Add(tp.Mul(a / 3))
			vel = vel.Add(tv.Mul(a / 3))
			area += a
		}
	}

	var com CenterOfMass
	if area > 0 {
		com.Mass = g.Params.AreaDensity * area
		com.Pos = pos.Mul(1 / area)
		com.Vel = vel.Mul(1 / area)
	}
	if g.Load == nil {
		return com
	}

	mp := g.Params.Payload
	load := g.Load.Posn
	total := com.Mass + mp
	if total == 0 {
		return com
	}
	return CenterOfMass{
		Pos:  com.Pos.Mul(com.Mass).Add(load.Pos.Mul(mp)).Mul(1 / total),
		Vel:  com.Vel.Mul(com.Mass).Add(load.Vel.Mul(mp)).Mul(1 / total),
		Mass: total,
	}
}

// TotalCanopyForce sums pressure forces over the elastic surfaces of in.
// Each triangle hands a third of its area to each vertex along its unit
// normal; the right-side pressure pushes against the normal (pos) and
// the left-side pressure with it (neg).
func TotalCanopyForce(in *mesh.Interface) (pos, neg Vec3) {
	for _, s := range in.Surfaces {
		if s.Wave != mesh.WaveElastic {
			continue
		}
		for _, t := range s.Tris {
			w := t.Normal().Mul(t.Area() / 3)
			for _, v := range t.V {
				pos = pos.Sub(w.Mul(v.Right.Pres))
				neg = neg.Add(w.Mul(v.Left.Pres))
			}
		}
	}
	return pos, neg
}
