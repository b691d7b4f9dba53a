package collision

import (
	"github.com/san-kum/fabricsim/internal/mesh"
)

// Cluster holds the triangles around one crossing on each surface and
// the fabric points found on the wrong side of the rigid one.
type Cluster struct {
	Rigid, Fabric *mesh.Surface
	RigidTris     []*mesh.Tri
	FabricTris    []*mesh.Tri
	Crossed       []*mesh.Vertex

	inRigid  map[*mesh.Tri]bool
	inFabric map[*mesh.Tri]bool
}

// BuildCluster grows both clusters from the triangle pairs of cc, closes
// them over concave gaps, then pulls in the rings of crossed fabric
// points and the rigid triangles nearest to them.
func BuildCluster(cc *mesh.CrossCurve) (*Cluster, error) {
	rigid, fabric, err := surfaceRoles(cc)
	if err != nil {
		return nil, err
	}
	c := &Cluster{
		Rigid:    rigid,
		Fabric:   fabric,
		inRigid:  make(map[*mesh.Tri]bool),
		inFabric: make(map[*mesh.Tri]bool),
	}

	for _, b := range cc.Bonds {
		for _, t := range b.Tris {
			switch t.Surf {
			case rigid:
				c.addRigid(t)
			case fabric:
				c.addFabric(t)
			}
		}
	}
	c.RigidTris = closure(c.RigidTris, c.inRigid)
	c.FabricTris = closure(c.FabricTris, c.inFabric)

	c.collectCrossed()
	return c, nil
}

func (c *Cluster) addRigid(t *mesh.Tri) bool {
	if c.inRigid[t] {
		return false
	}
	c.inRigid[t] = true
	c.RigidTris = append(c.RigidTris, t)
	return true
}

func (c *Cluster) addFabric(t *mesh.Tri) bool {
	if c.inFabric[t] {
		return false
	}
	c.inFabric[t] = true
	c.FabricTris = append(c.FabricTris, t)
	return true
}

// closure adds every triangle that borders at least two members across
// an edge, repeating until none is left. Each candidate keeps a count of
// member neighbors and enters the frontier once the count reaches two.
func closure(tris []*mesh.Tri, in map[*mesh.Tri]bool) []*mesh.Tri {
	count := make(map[*mesh.Tri]int)
	var frontier []*mesh.Tri
	touch := func(t *mesh.Tri) {
		for _, nb := range t.Nbr {
			if nb == nil || in[nb] {
				continue
			}
			count[nb]++
			if count[nb] == 2 {
				frontier = append(frontier, nb)
			}
		}
	}

	for _, t := range tris {
		touch(t)
	}
	for len(frontier) > 0 {
		t := frontier[0]
		frontier = frontier[1:]
		if in[t] {
			continue
		}
		in[t] = true
		tris = append(tris, t)
		touch(t)
	}
	return tris
}

// collectCrossed walks fabric points outward from the cluster. A point
// inside the rigid cluster brings its own ring into the fabric cluster
// and the rigid triangle nearest to it, with that triangle's ring, into
// the rigid cluster. The crossed list is taken against the final rigid
// cluster.
func (c *Cluster) collectCrossed() {
	seen := mesh.NewVisitSet(3 * len(c.FabricTris))
	var pending []*mesh.Vertex
	push := func(t *mesh.Tri) {
		for _, p := range t.V {
			if !seen.Seen(p) {
				pending = append(pending, p)
			}
		}
	}
	for _, t := range c.FabricTris {
		push(t)
	}

	for len(pending) > 0 {
		p := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if !seen.Visit(p) {
			continue
		}
		if mesh.PositionWrtCluster(p.Pos, c.RigidTris) != mesh.Inside {
			continue
		}
		for _, t := range mesh.TrisAroundPoint(p, c.Fabric) {
			if c.addFabric(t) {
				push(t)
			}
		}
		if n, ok := mesh.NearestPointToCluster(p.Pos, c.Rigid.Tris); ok {
			for _, t := range mesh.TriAndFirstRing(n.Tri) {
				c.addRigid(t)
			}
		}
	}

	c.Crossed = c.Crossed[:0]
	pts := mesh.NewVisitSet(3 * len(c.FabricTris))
	for _, t := range c.FabricTris {
		for _, p := range t.V {
			if pts.Visit(p) && mesh.PositionWrtCluster(p.Pos, c.RigidTris) == mesh.Inside {
				c.Crossed = append(c.Crossed, p)
			}
		}
	}
}

// Correct moves every crossed point still inside the rigid cluster to
// its nearest point there, offset outward by tol grid cells along the
// normal. All targets are computed before any point moves. Points on the
// surface or outside are left alone, so a second call is a no-op.
func (c *Cluster) Correct(h mesh.Vec3, tol float64) int {
	type move struct {
		p  *mesh.Vertex
		to mesh.Vec3
	}
	moves := make([]move, 0, len(c.Crossed))
	for _, p := range c.Crossed {
		n, ok := mesh.NearestPointToCluster(p.Pos, c.RigidTris)
		if !ok || n.Position() != mesh.Inside {
			continue
		}
		hdir := mesh.GridSizeInDirection(n.Normal, h)
		moves = append(moves, move{p, n.Point.Add(n.Normal.Mul(tol * hdir))})
	}
	for _, m := range moves {
		m.p.Pos = m.to
	}
	return len(moves)
}

// RigidBeyond counts rigid cluster points lying on the normal side of
// the fabric cluster.
func (c *Cluster) RigidBeyond() int {
	seen := mesh.NewVisitSet(3 * len(c.RigidTris))
	count := 0
	for _, t := range c.RigidTris {
		for _, p := range t.V {
			if seen.Visit(p) && mesh.PositionWrtCluster(p.Pos, c.FabricTris) == mesh.Outside {
				count++
			}
		}
	}
	return count
}
