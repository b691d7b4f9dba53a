package mesh

import "math"

// Feature identifies which part of a triangle a nearest point lands on.
type Feature int

const (
	FeatureFace Feature = iota
	FeatureEdge
	FeatureVertex
)

func (f Feature) String() string {
	switch f {
	case FeatureEdge:
		return "edge"
	case FeatureVertex:
		return "vertex"
	default:
		return "face"
	}
}

// Position classifies a point against an oriented triangle cluster whose
// normals point away from the body it bounds.
type Position int

const (
	OnSurface Position = iota
	Inside
	Outside
)

func (p Position) String() string {
	switch p {
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	default:
		return "on_surface"
	}
}

// SurfaceTol is the signed distance below which a point counts as lying
// on a cluster.
const SurfaceTol = 1e-10

// Nearest is the result of a nearest-point query against a cluster.
type Nearest struct {
	Point Vec3
	// Normal is the outward pseudo-normal at Point: the mean normal of
	// every cluster triangle attaining the minimum distance.
	Normal  Vec3
	Tri     *Tri
	Feature Feature
	// Edge is the side index when Feature is FeatureEdge and the corner
	// index when Feature is FeatureVertex.
	Edge int
	// Dist is the signed distance (x - Point)·Normal.
	Dist float64
}

// Position classifies the queried point; on-edge landings follow the
// same signed-distance rule as faces.
func (n Nearest) Position() Position {
	switch {
	case math.Abs(n.Dist) <= SurfaceTol:
		return OnSurface
	case n.Dist < 0:
		return Inside
	default:
		return Outside
	}
}

// NearestPointToCluster finds the point of tris closest to x. ok is false
// for an empty cluster.
func NearestPointToCluster(x Vec3, tris []*Tri) (Nearest, bool) {
	if len(tris) == 0 {
		return Nearest{}, false
	}

	type hit struct {
		p    Vec3
		d2   float64
		feat Feature
		idx  int
	}
	hits := make([]hit, len(tris))
	best := 0
	for i, t := range tris {
		p, f, idx := ClosestPointOnTri(x, t.V[0].Pos, t.V[1].Pos, t.V[2].Pos)
		d := x.Sub(p)
		hits[i] = hit{p, d.Dot(d), f, idx}
		if hits[i].d2 < hits[best].d2 {
			best = i
		}
	}

	res := Nearest{
		Point:   hits[best].p,
		Tri:     tris[best],
		Feature: hits[best].feat,
		Edge:    hits[best].idx,
	}

	dmin := math.Sqrt(hits[best].d2)
	tie := 1e-9 * (1 + dmin)
	var sum Vec3
	for i, t := range tris {
		if math.Abs(math.Sqrt(hits[i].d2)-dmin) <= tie {
			sum = sum.Add(t.Normal())
		}
	}
	if l := sum.Len(); l > 0 {
		res.Normal = sum.Mul(1 / l)
	} else {
		res.Normal = tris[best].Normal()
	}
	res.Dist = x.Sub(res.Point).Dot(res.Normal)
	return res, true
}

// PositionWrtCluster classifies x against tris. An empty cluster puts
// every point outside.
func PositionWrtCluster(x Vec3, tris []*Tri) Position {
	n, ok := NearestPointToCluster(x, tris)
	if !ok {
		return Outside
	}
	return n.Position()
}

// ClosestPointOnTri returns the point of triangle abc nearest to p and
// the feature it lies on. For edges idx is the side (0: ab, 1: bc,
// 2: ca); for vertices it is the corner.
func ClosestPointOnTri(p, a, b, c Vec3) (Vec3, Feature, int) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, FeatureVertex, 0
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, FeatureVertex, 1
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), FeatureEdge, 0
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, FeatureVertex, 2
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), FeatureEdge, 2
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), FeatureEdge, 1
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), FeatureFace, -1
}

// GridSizeInDirection is the grid spacing seen along unit direction n
// on a rectangular grid with spacings h.
func GridSizeInDirection(n, h Vec3) float64 {
	sum := 0.0
	for i := 0; i < 3; i++ {
		sum += (n[i] * h[i]) * (n[i] * h[i])
	}
	return math.Sqrt(sum)
}
