package fabric

import (
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

// Group is the structural group one Advance call acts on.
type Group struct {
	Surfaces []*mesh.Surface
	Curves   []*mesh.Curve
	Nodes    []*mesh.Node
	Load     *mesh.Node
	Params   Params
}

// NewGroup collects every elastic surface of in together with all of
// its curves and nodes. The first load node, if any, carries the payload.
func NewGroup(in *mesh.Interface, p Params) *Group {
	g := &Group{Params: p}
	for _, s := range in.Surfaces {
		if s.Wave == mesh.WaveElastic {
			g.Surfaces = append(g.Surfaces, s)
		}
	}
	g.Curves = append(g.Curves, in.Curves...)
	g.Nodes = append(g.Nodes, in.Nodes...)
	for _, n := range g.Nodes {
		if n.Role == mesh.NodeLoad {
			g.Load = n
			break
		}
	}
	return g
}

// owner is where a gathered point was reached from: exactly one of
// surf, curve or node is set.
type owner struct {
	surf  *mesh.Surface
	curve *mesh.Curve
	pos   int
	node  *mesh.Node
}

// each visits the group's vertices in buffer order: surface-interior
// points, then curve-interior points, then node points. Every vertex is
// visited once.
func (g *Group) each(fn func(p *mesh.Vertex, o owner)) {
	seen := mesh.NewVisitSet(64)
	for _, s := range g.Surfaces {
		for _, t := range s.Tris {
			for _, p := range t.V {
				if p.Boundary || !seen.Visit(p) {
					continue
				}
				fn(p, owner{surf: s})
			}
		}
	}
	for _, c := range g.Curves {
		for i, p := range c.Points {
			if i == 0 || i == len(c.Points)-1 || !seen.Visit(p) {
				continue
			}
			fn(p, owner{curve: c, pos: i})
		}
	}
	for _, n := range g.Nodes {
		if seen.Visit(n.Posn) {
			fn(n.Posn, owner{node: n})
		}
	}
}

// Points lists the group's vertices in buffer order.
func (g *Group) Points() []*mesh.Vertex {
	pts := make([]*mesh.Vertex, 0, 64)
	g.each(func(p *mesh.Vertex, _ owner) { pts = append(pts, p) })
	return pts
}

func (g *Group) NumVerts() int { return len(g.Points()) }

// Contains reports whether s belongs to the group.
func (g *Group) Contains(s *mesh.Surface) bool {
	for _, gs := range g.Surfaces {
		if gs == s {
			return true
		}
	}
	return false
}

// EachMass visits every group point with the mass its material gives it.
func (g *Group) EachMass(fn func(p *mesh.Vertex, m float64)) {
	g.each(func(p *mesh.Vertex, o owner) {
		var c spring.Class
		switch {
		case o.curve != nil:
			c = CurveClass(o.curve.Role)
		case o.node != nil:
			c = NodeClass(o.node.Role)
		default:
			c = spring.Canopy
		}
		fn(p, g.Params.Material(c).Mass)
	})
}

// EachSpring visits every spring of the group once: unflagged triangle
// sides with the canopy stiffness and curve bonds with the stiffness of
// their curve.
func (g *Group) EachSpring(fn func(a, b *mesh.Vertex, k, restLen float64)) {
	type edge struct{ a, b mesh.VertexID }
	seen := make(map[edge]bool)
	for _, s := range g.Surfaces {
		for _, t := range s.Tris {
			for i, sd := range t.Sides {
				if sd.Boundary {
					continue
				}
				a, b := t.V[i], t.V[(i+1)%3]
				e := edge{a.ID, b.ID}
				if e.a > e.b {
					e.a, e.b = e.b, e.a
				}
				if seen[e] {
					continue
				}
				seen[e] = true
				fn(a, b, g.Params.Ks, sd.RestLen)
			}
		}
	}
	for _, c := range g.Curves {
		k := g.Params.Material(CurveClass(c.Role)).K
		for _, b := range c.Bonds {
			fn(b.Start, b.End, k, b.RestLen)
		}
	}
}

// SetPressure puts a pressure jump across every surface of the group:
// jump on the right side of each point, zero on the left.
func (g *Group) SetPressure(jump float64) {
	for _, s := range g.Surfaces {
		for _, p := range s.Points() {
			p.Left.Pres = 0
			p.Right.Pres = jump
		}
	}
}
