package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec3 = mgl64.Vec3

type VertexID int

// SideState is the per-side fluid state attached to a point of a
// two-sided membrane.
type SideState struct {
	Vel  Vec3
	Pres float64
}

type Vertex struct {
	ID      VertexID
	Pos     Vec3
	Vel     Vec3
	Impulse Vec3
	Left    SideState
	Right   SideState

	// Boundary is set for points lying on a curve or node; such points
	// are not surface-interior points.
	Boundary bool
	// Registered points are pinned by an external registration list and
	// take no elastic force.
	Registered bool

	tris []*Tri
}

// Tris returns every triangle incident to v, over all surfaces.
func (v *Vertex) Tris() []*Tri { return v.tris }

func (v *Vertex) String() string {
	return fmt.Sprintf("v%d(%.4g, %.4g, %.4g)", v.ID, v.Pos[0], v.Pos[1], v.Pos[2])
}

// Side i of a triangle runs from V[i] to V[(i+1)%3].
type Side struct {
	// Boundary marks a side lying on a curve bond.
	Boundary bool
	RestLen  float64
	RestDir  Vec3
}

type Tri struct {
	ID    int
	V     [3]*Vertex
	Sides [3]Side
	Nbr   [3]*Tri
	Surf  *Surface
}

// Index returns the corner index of v in t, or -1.
func (t *Tri) Index(v *Vertex) int {
	for i, p := range t.V {
		if p == v {
			return i
		}
	}
	return -1
}

func (t *Tri) Has(v *Vertex) bool { return t.Index(v) >= 0 }

// Cross returns the un-normalized normal, twice the area in magnitude.
func (t *Tri) Cross() Vec3 {
	e1 := t.V[1].Pos.Sub(t.V[0].Pos)
	e2 := t.V[2].Pos.Sub(t.V[0].Pos)
	return e1.Cross(e2)
}

func (t *Tri) Normal() Vec3 {
	c := t.Cross()
	l := c.Len()
	if l == 0 {
		return Vec3{}
	}
	return c.Mul(1 / l)
}

func (t *Tri) Area() float64 { return 0.5 * t.Cross().Len() }

func (t *Tri) Centroid() Vec3 {
	return t.V[0].Pos.Add(t.V[1].Pos).Add(t.V[2].Pos).Mul(1.0 / 3.0)
}

// WaveType is the declared role of a surface.
type WaveType int

const (
	WaveOther WaveType = iota
	WaveElastic
	WaveNeumann
	WaveMovableBody
)

func (w WaveType) String() string {
	switch w {
	case WaveElastic:
		return "elastic"
	case WaveNeumann:
		return "neumann"
	case WaveMovableBody:
		return "movable_body"
	default:
		return "other"
	}
}

// IsRigid reports whether surfaces of this role are non-deformable.
func (w WaveType) IsRigid() bool { return w == WaveNeumann || w == WaveMovableBody }

type Surface struct {
	Name string
	Wave WaveType
	Tris []*Tri
}

// Points returns the distinct vertices of s in triangle order.
func (s *Surface) Points() []*Vertex {
	seen := NewVisitSet(len(s.Tris))
	pts := make([]*Vertex, 0, len(s.Tris))
	for _, t := range s.Tris {
		for _, p := range t.V {
			if seen.Visit(p) {
				pts = append(pts, p)
			}
		}
	}
	return pts
}

type CurveRole int

const (
	CurveMono CurveRole = iota
	CurveString
	CurveGore
)

func (r CurveRole) String() string {
	switch r {
	case CurveString:
		return "string"
	case CurveGore:
		return "gore"
	default:
		return "mono"
	}
}

type Bond struct {
	Start, End *Vertex
	RestLen    float64
	RestDir    Vec3
	// Tris holds the surface triangles having this bond as a side.
	Tris []*Tri
}

func (b *Bond) Length() float64 { return b.End.Pos.Sub(b.Start.Pos).Len() }

type Curve struct {
	Name   string
	Role   CurveRole
	Points []*Vertex
	Bonds  []*Bond
	Start  *Node
	End    *Node
}

// Interior returns the points strictly between the two end nodes.
func (c *Curve) Interior() []*Vertex {
	if len(c.Points) < 3 {
		return nil
	}
	return c.Points[1 : len(c.Points)-1]
}

func (c *Curve) First() *Bond { return c.Bonds[0] }
func (c *Curve) Last() *Bond  { return c.Bonds[len(c.Bonds)-1] }

func (c *Curve) IsClosed() bool { return c.Start == c.End }

type NodeRole int

const (
	NodeUnset NodeRole = iota
	NodeLoad
	NodeGore
	NodeString
)

func (r NodeRole) String() string {
	switch r {
	case NodeLoad:
		return "load"
	case NodeGore:
		return "gore"
	case NodeString:
		return "string"
	default:
		return "unset"
	}
}

type Node struct {
	Name string
	Posn *Vertex
	Role NodeRole
	Out  []*Curve
	In   []*Curve
}
