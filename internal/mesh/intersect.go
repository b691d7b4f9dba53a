package mesh

import "math"

// CrossBond is one piece of a crossing curve: the pair of triangles, one
// per surface, whose intersection it is.
type CrossBond struct {
	Tris   [2]*Tri
	Points []Vec3
}

// CrossCurve reports a crossing between two surfaces. Tris[i] of every
// bond belongs to Surfs[i].
type CrossCurve struct {
	Surfs [2]*Surface
	Bonds []CrossBond
}

// FindCrossings tests every triangle pair of every surface pair and
// groups the intersecting pairs into one crossing per surface pair.
// Triangles sharing a vertex are not tested against each other.
func FindCrossings(in *Interface) []*CrossCurve {
	var out []*CrossCurve
	for i := 0; i < len(in.Surfaces); i++ {
		for j := i + 1; j < len(in.Surfaces); j++ {
			if cc := crossSurfaces(in.Surfaces[i], in.Surfaces[j]); cc != nil {
				out = append(out, cc)
			}
		}
	}
	return out
}

func crossSurfaces(s0, s1 *Surface) *CrossCurve {
	boxes1 := make([]bbox, len(s1.Tris))
	for k, t := range s1.Tris {
		boxes1[k] = triBox(t)
	}

	var cc *CrossCurve
	for _, t0 := range s0.Tris {
		b0 := triBox(t0)
		for k, t1 := range s1.Tris {
			if !b0.overlaps(boxes1[k]) || sharesVertex(t0, t1) {
				continue
			}
			pts := TriTriIntersection(t0, t1)
			if len(pts) == 0 {
				continue
			}
			if cc == nil {
				cc = &CrossCurve{Surfs: [2]*Surface{s0, s1}}
			}
			cc.Bonds = append(cc.Bonds, CrossBond{Tris: [2]*Tri{t0, t1}, Points: pts})
		}
	}
	return cc
}

// TriTriIntersection returns the points where an edge of one triangle
// pierces the other. Coplanar contact is not reported.
func TriTriIntersection(t0, t1 *Tri) []Vec3 {
	var pts []Vec3
	for _, pair := range [2][2]*Tri{{t0, t1}, {t1, t0}} {
		e, f := pair[0], pair[1]
		for i := 0; i < 3; i++ {
			if p, ok := SegmentTriIntersection(e.V[i].Pos, e.V[(i+1)%3].Pos,
				f.V[0].Pos, f.V[1].Pos, f.V[2].Pos); ok {
				pts = append(pts, p)
			}
		}
	}
	return pts
}

// SegmentTriIntersection is the Möller–Trumbore test restricted to the
// segment p0p1.
func SegmentTriIntersection(p0, p1, a, b, c Vec3) (Vec3, bool) {
	const eps = 1e-12
	dir := p1.Sub(p0)
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if math.Abs(det) < eps {
		return Vec3{}, false
	}
	inv := 1 / det
	s := p0.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return Vec3{}, false
	}
	q := s.Cross(e1)
	v := inv * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return Vec3{}, false
	}
	t := inv * e2.Dot(q)
	if t < 0 || t > 1 {
		return Vec3{}, false
	}
	return p0.Add(dir.Mul(t)), true
}

func sharesVertex(t0, t1 *Tri) bool {
	for _, p := range t0.V {
		if t1.Has(p) {
			return true
		}
	}
	return false
}

type bbox struct{ lo, hi Vec3 }

func triBox(t *Tri) bbox {
	b := bbox{lo: t.V[0].Pos, hi: t.V[0].Pos}
	for _, p := range t.V[1:] {
		for k := 0; k < 3; k++ {
			b.lo[k] = math.Min(b.lo[k], p.Pos[k])
			b.hi[k] = math.Max(b.hi[k], p.Pos[k])
		}
	}
	return b
}

func (b bbox) overlaps(o bbox) bool {
	for k := 0; k < 3; k++ {
		if b.hi[k] < o.lo[k] || o.hi[k] < b.lo[k] {
			return false
		}
	}
	return true
}
