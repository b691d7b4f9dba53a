package fabric

import (
	"fmt"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

// describe fills the descriptor of the point p reached from o. Material
// and links are resolved here once per call; the kernel never looks at
// roles again.
func describe(sv *spring.Vertex, p *mesh.Vertex, o owner, g *Group, index map[mesh.VertexID]int) error {
	prm := g.Params
	switch {
	case o.surf != nil:
		sv.Reset(prm.Material(spring.Canopy))
		if err := linkInteriorSides(sv, p, o.surf, prm.Ks, index); err != nil {
			return err
		}
	case o.curve != nil:
		m := prm.Material(CurveClass(o.curve.Role))
		sv.Reset(m)
		prev, next := o.curve.Bonds[o.pos-1], o.curve.Bonds[o.pos]
		if err := link(sv, prev.Start, m.K, prev.RestLen, prev.RestDir.Mul(-1), index); err != nil {
			return err
		}
		if err := link(sv, next.End, m.K, next.RestLen, next.RestDir, index); err != nil {
			return err
		}
		if err := linkOpenSides(sv, p, g, prm.Ks, index); err != nil {
			return err
		}
	case o.node != nil:
		sv.Reset(prm.Material(NodeClass(o.node.Role)))
		for _, c := range o.node.Out {
			b := c.First()
			if err := link(sv, b.End, prm.Material(CurveClass(c.Role)).K, b.RestLen, b.RestDir, index); err != nil {
				return err
			}
		}
		for _, c := range o.node.In {
			b := c.Last()
			if err := link(sv, b.Start, prm.Material(CurveClass(c.Role)).K, b.RestLen, b.RestDir.Mul(-1), index); err != nil {
				return err
			}
		}
		if err := linkOpenSides(sv, p, g, prm.Ks, index); err != nil {
			return err
		}
	}
	sv.Fixed = p.Registered
	return nil
}

func link(sv *spring.Vertex, nb *mesh.Vertex, k, restLen float64, restDir Vec3, index map[mesh.VertexID]int) error {
	j, ok := index[nb.ID]
	if !ok {
		return fmt.Errorf("neighbor %s is outside the structural group", nb)
	}
	if !sv.HasLink(j) {
		sv.Link(j, k, restLen, restDir)
	}
	return nil
}

// linkInteriorSides links a surface-interior point to every neighbor
// across the two sides it has in each triangle of its ring, once per
// neighbor. Any flagged side around it is a broken topology.
func linkInteriorSides(sv *spring.Vertex, p *mesh.Vertex, s *mesh.Surface, k float64, index map[mesh.VertexID]int) error {
	for _, t := range mesh.TrisAroundPoint(p, s) {
		j := t.Index(p)
		out, in := t.Sides[j], t.Sides[(j+2)%3]
		if out.Boundary || in.Boundary {
			return fmt.Errorf("point %s, tri %d: %w", p, t.ID, dynamo.ErrBoundarySpring)
		}
		if err := link(sv, t.V[(j+1)%3], k, out.RestLen, out.RestDir, index); err != nil {
			return err
		}
		if err := link(sv, t.V[(j+2)%3], k, in.RestLen, in.RestDir.Mul(-1), index); err != nil {
			return err
		}
	}
	return nil
}

// linkOpenSides links a curve or node point to its surface neighbors.
// Its fan is open, so both sides at the point are looked at; flagged
// sides are skipped since the bond springs already cover them.
func linkOpenSides(sv *spring.Vertex, p *mesh.Vertex, g *Group, k float64, index map[mesh.VertexID]int) error {
	for _, t := range p.Tris() {
		if !g.Contains(t.Surf) {
			continue
		}
		j := t.Index(p)
		if out := t.Sides[j]; !out.Boundary {
			if err := link(sv, t.V[(j+1)%3], k, out.RestLen, out.RestDir, index); err != nil {
				return err
			}
		}
		if in := t.Sides[(j+2)%3]; !in.Boundary {
			if err := link(sv, t.V[(j+2)%3], k, in.RestLen, in.RestDir.Mul(-1), index); err != nil {
				return err
			}
		}
	}
	return nil
}
