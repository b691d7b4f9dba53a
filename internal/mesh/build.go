package mesh

import "fmt"

// SquareCanopy lays an n×n quad grid of side size in the plane z =
// center.Z, two triangles per quad, normals along +z. grid[i][j] is the
// vertex at column i (x) and row j (y).
func SquareCanopy(in *Interface, name string, n int, size float64, center Vec3) (*Surface, [][]*Vertex, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("canopy %s: need at least one cell, got %d", name, n)
	}
	h := size / float64(n)
	x0 := center[0] - size/2
	y0 := center[1] - size/2

	grid := make([][]*Vertex, n+1)
	pts := make([]*Vertex, 0, (n+1)*(n+1))
	for i := 0; i <= n; i++ {
		grid[i] = make([]*Vertex, n+1)
	}
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			v := in.NewVertex(Vec3{x0 + float64(i)*h, y0 + float64(j)*h, center[2]})
			grid[i][j] = v
			pts = append(pts, v)
		}
	}

	at := func(i, j int) int { return j*(n+1) + i }
	tris := make([][3]int, 0, 2*n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a, b, c, d := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
			tris = append(tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}

	s, err := in.AddSurface(name, WaveElastic, pts, tris)
	if err != nil {
		return nil, nil, err
	}
	return s, grid, nil
}

// Box builds the closed axis-aligned box [lo, hi] with outward normals.
func Box(in *Interface, name string, wave WaveType, lo, hi Vec3) (*Surface, error) {
	pts := make([]*Vertex, 8)
	for k := 0; k < 8; k++ {
		p := lo
		if k&1 != 0 {
			p[0] = hi[0]
		}
		if k&2 != 0 {
			p[1] = hi[1]
		}
		if k&4 != 0 {
			p[2] = hi[2]
		}
		pts[k] = in.NewVertex(p)
	}

	quads := [6][4]int{
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
	}
	tris := make([][3]int, 0, 12)
	for _, q := range quads {
		tris = append(tris, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	return in.AddSurface(name, wave, pts, tris)
}

// Parachute is a square canopy hung from a payload by four string lines.
type Parachute struct {
	Canopy    *Surface
	Load      *Node
	Corners   [4]*Node
	Perimeter []*Curve
	Strings   []*Curve
}

// NewParachute builds an n×n canopy of side size at height top, its
// perimeter split into four mono curves between corner string nodes, and
// a string line of segs bonds from each corner to a load node hanging
// lineLen below the canopy center.
func NewParachute(in *Interface, n int, size, top, lineLen float64, segs int) (*Parachute, error) {
	if segs < 1 {
		return nil, fmt.Errorf("parachute: need at least one string segment, got %d", segs)
	}
	canopy, grid, err := SquareCanopy(in, "canopy", n, size, Vec3{0, 0, top})
	if err != nil {
		return nil, err
	}
	pc := &Parachute{Canopy: canopy}

	corners := [4]*Vertex{grid[0][0], grid[n][0], grid[n][n], grid[0][n]}
	for k, v := range corners {
		pc.Corners[k] = in.AddNode(fmt.Sprintf("corner%d", k), NodeString, v)
	}

	sides := [4][]*Vertex{}
	for i := 0; i <= n; i++ {
		sides[0] = append(sides[0], grid[i][0])
		sides[1] = append(sides[1], grid[n][i])
		sides[2] = append(sides[2], grid[n-i][n])
		sides[3] = append(sides[3], grid[0][n-i])
	}
	for k, pts := range sides {
		c, err := in.AddCurve(fmt.Sprintf("edge%d", k), CurveMono, pc.Corners[k], pc.Corners[(k+1)%4], pts)
		if err != nil {
			return nil, err
		}
		pc.Perimeter = append(pc.Perimeter, c)
	}

	load := in.NewVertex(Vec3{0, 0, top - lineLen})
	pc.Load = in.AddNode("load", NodeLoad, load)
	for k, node := range pc.Corners {
		start := node.Posn.Pos
		pts := []*Vertex{node.Posn}
		for s := 1; s < segs; s++ {
			f := float64(s) / float64(segs)
			pts = append(pts, in.NewVertex(start.Add(load.Pos.Sub(start).Mul(f))))
		}
		pts = append(pts, load)
		c, err := in.AddCurve(fmt.Sprintf("string%d", k), CurveString, node, pc.Load, pts)
		if err != nil {
			return nil, err
		}
		pc.Strings = append(pc.Strings, c)
	}
	return pc, nil
}
