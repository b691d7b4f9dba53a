package mesh

import "fmt"

// Interface owns every vertex, surface, curve and node of one front.
type Interface struct {
	Vertices []*Vertex
	Surfaces []*Surface
	Curves   []*Curve
	Nodes    []*Node

	nextTri int
}

func NewInterface() *Interface {
	return &Interface{}
}

func (in *Interface) NewVertex(pos Vec3) *Vertex {
	v := &Vertex{ID: VertexID(len(in.Vertices)), Pos: pos}
	in.Vertices = append(in.Vertices, v)
	return v
}

func (in *Interface) NumVertices() int { return len(in.Vertices) }

// AddSurface builds a surface from index triples into pts and links
// neighbors across shared sides.
func (in *Interface) AddSurface(name string, wave WaveType, pts []*Vertex, tris [][3]int) (*Surface, error) {
	s := &Surface{Name: name, Wave: wave, Tris: make([]*Tri, 0, len(tris))}
	for _, idx := range tris {
		t := &Tri{ID: in.nextTri, Surf: s}
		in.nextTri++
		for k := 0; k < 3; k++ {
			if idx[k] < 0 || idx[k] >= len(pts) {
				return nil, fmt.Errorf("surface %s: vertex index %d out of range", name, idx[k])
			}
			t.V[k] = pts[idx[k]]
		}
		if t.V[0] == t.V[1] || t.V[1] == t.V[2] || t.V[2] == t.V[0] {
			return nil, fmt.Errorf("surface %s: degenerate triangle %v", name, idx)
		}
		for _, p := range t.V {
			p.tris = append(p.tris, t)
		}
		s.Tris = append(s.Tris, t)
	}
	linkNeighbors(s.Tris)
	in.Surfaces = append(in.Surfaces, s)
	return s, nil
}

type edgeKey struct{ a, b VertexID }

func makeEdgeKey(p, q *Vertex) edgeKey {
	if p.ID < q.ID {
		return edgeKey{p.ID, q.ID}
	}
	return edgeKey{q.ID, p.ID}
}

type sideRef struct {
	t    *Tri
	side int
}

func linkNeighbors(tris []*Tri) {
	edges := make(map[edgeKey][]sideRef, len(tris)*3/2)
	for _, t := range tris {
		for i := 0; i < 3; i++ {
			k := makeEdgeKey(t.V[i], t.V[(i+1)%3])
			edges[k] = append(edges[k], sideRef{t, i})
		}
	}
	for _, refs := range edges {
		if len(refs) != 2 {
			continue
		}
		refs[0].t.Nbr[refs[0].side] = refs[1].t
		refs[1].t.Nbr[refs[1].side] = refs[0].t
	}
}

func (in *Interface) AddNode(name string, role NodeRole, posn *Vertex) *Node {
	posn.Boundary = true
	n := &Node{Name: name, Posn: posn, Role: role}
	in.Nodes = append(in.Nodes, n)
	return n
}

// AddCurve chains pts into bonds from start to end. Triangle sides
// matching a bond are flagged as boundary sides and attached to it.
func (in *Interface) AddCurve(name string, role CurveRole, start, end *Node, pts []*Vertex) (*Curve, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("curve %s: need at least two points", name)
	}
	if pts[0] != start.Posn || pts[len(pts)-1] != end.Posn {
		return nil, fmt.Errorf("curve %s: end points do not match nodes", name)
	}
	c := &Curve{Name: name, Role: role, Points: pts, Start: start, End: end}
	for i := 0; i+1 < len(pts); i++ {
		b := &Bond{Start: pts[i], End: pts[i+1]}
		for _, t := range pts[i].tris {
			if side := t.SideOf(pts[i], pts[i+1]); side >= 0 {
				t.Sides[side].Boundary = true
				b.Tris = append(b.Tris, t)
			}
		}
		c.Bonds = append(c.Bonds, b)
	}
	for _, p := range pts {
		p.Boundary = true
	}
	start.Out = append(start.Out, c)
	end.In = append(end.In, c)
	in.Curves = append(in.Curves, c)
	return c, nil
}

// SideOf returns the side index joining p and q in either orientation,
// or -1.
func (t *Tri) SideOf(p, q *Vertex) int {
	for i := 0; i < 3; i++ {
		a, b := t.V[i], t.V[(i+1)%3]
		if (a == p && b == q) || (a == q && b == p) {
			return i
		}
	}
	return -1
}

// SetRestState captures rest length and direction of every triangle side
// and bond from the current positions. It is called once, at mesh
// construction.
func (in *Interface) SetRestState() {
	for _, s := range in.Surfaces {
		for _, t := range s.Tris {
			for i := 0; i < 3; i++ {
				d := t.V[(i+1)%3].Pos.Sub(t.V[i].Pos)
				t.Sides[i].RestLen = d.Len()
				t.Sides[i].RestDir = unit(d)
			}
		}
	}
	for _, c := range in.Curves {
		for _, b := range c.Bonds {
			d := b.End.Pos.Sub(b.Start.Pos)
			b.RestLen = d.Len()
			b.RestDir = unit(d)
		}
	}
}

// TrisAroundPoint returns the first ring of v restricted to surface s.
func TrisAroundPoint(v *Vertex, s *Surface) []*Tri {
	ring := make([]*Tri, 0, len(v.tris))
	for _, t := range v.tris {
		if t.Surf == s {
			ring = append(ring, t)
		}
	}
	return ring
}

// RingPoints returns v and every vertex sharing a first-ring triangle
// with it on s, without repetition.
func RingPoints(v *Vertex, s *Surface) []*Vertex {
	seen := NewVisitSet(8)
	pts := make([]*Vertex, 0, 8)
	for _, t := range TrisAroundPoint(v, s) {
		for _, p := range t.V {
			if seen.Visit(p) {
				pts = append(pts, p)
			}
		}
	}
	return pts
}

// TriAndFirstRing returns t together with every triangle of its surface
// sharing a vertex with it.
func TriAndFirstRing(t *Tri) []*Tri {
	out := []*Tri{t}
	seen := map[*Tri]bool{t: true}
	for _, p := range t.V {
		for _, nt := range p.tris {
			if nt.Surf != t.Surf || seen[nt] {
				continue
			}
			seen[nt] = true
			out = append(out, nt)
		}
	}
	return out
}

// NormalAtPoint is the area-weighted mean of the normals of v's first
// ring over all surfaces. ok is false for points without triangles.
func NormalAtPoint(v *Vertex) (n Vec3, ok bool) {
	for _, t := range v.tris {
		n = n.Add(t.Cross())
	}
	l := n.Len()
	if l == 0 {
		return Vec3{}, false
	}
	return n.Mul(1 / l), true
}

func unit(d Vec3) Vec3 {
	l := d.Len()
	if l == 0 {
		return Vec3{}
	}
	return d.Mul(1 / l)
}

// VisitSet records vertices seen during one traversal pass.
type VisitSet map[VertexID]struct{}

func NewVisitSet(capacity int) VisitSet {
	return make(VisitSet, capacity)
}

// Visit marks v and reports whether it was not seen before.
func (s VisitSet) Visit(v *Vertex) bool {
	if _, ok := s[v.ID]; ok {
		return false
	}
	s[v.ID] = struct{}{}
	return true
}

func (s VisitSet) Seen(v *Vertex) bool {
	_, ok := s[v.ID]
	return ok
}
