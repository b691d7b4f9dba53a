package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fabricsim/internal/mesh"
)

// Camera is an orthographic view turned by Yaw about z, then Pitch about
// x. Screen right is the rotated x axis and screen up the rotated z.
type Camera struct {
	Center     mesh.Vec3
	Pitch, Yaw float64
	Zoom       float64
	// Scale is dots per world unit at zoom 1.
	Scale float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.35, Yaw: 0.6, Zoom: 1, Scale: 10}
}

func (c *Camera) Rotate(dPitch, dYaw float64) {
	c.Pitch += dPitch
	c.Yaw += dYaw
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DZ(c.Yaw))
}

// Project maps p to dot coordinates on a w×h dot canvas. ok is false off
// canvas.
func (c *Camera) Project(p mesh.Vec3, w, h int) (x, y int, depth float64, ok bool) {
	r := c.rotation().Mul3x1(p.Sub(c.Center)).Mul(c.Scale * c.Zoom)
	x = int(math.Round(r[0])) + w/2
	y = -int(math.Round(r[2])) + h/2
	return x, y, r[1], x >= 0 && x < w && y >= 0 && y < h
}

// Fit centers the view on pts and sets Scale so their bounding sphere
// fills most of a w×h dot canvas.
func (c *Camera) Fit(pts []mesh.Vec3, w, h int) {
	if len(pts) == 0 {
		return
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	c.Center = lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius == 0 {
		return
	}
	c.Scale = 0.45 * float64(min(w, h)) / radius
}

// Edge joins two mesh points; positions are read at draw time.
type Edge struct {
	A, B *mesh.Vertex
}

// Wireframe lists every triangle side and curve bond of in once.
func Wireframe(in *mesh.Interface) []Edge {
	type key struct{ a, b mesh.VertexID }
	seen := make(map[key]bool)
	var edges []Edge
	add := func(a, b *mesh.Vertex) {
		k := key{a.ID, b.ID}
		if k.a > k.b {
			k.a, k.b = k.b, k.a
		}
		if seen[k] {
			return
		}
		seen[k] = true
		edges = append(edges, Edge{a, b})
	}
	for _, s := range in.Surfaces {
		for _, t := range s.Tris {
			for i := 0; i < 3; i++ {
				add(t.V[i], t.V[(i+1)%3])
			}
		}
	}
	for _, cv := range in.Curves {
		for _, b := range cv.Bonds {
			add(b.Start, b.End)
		}
	}
	return edges
}

// Render draws edges on c as seen by cam.
func Render(c *Canvas, edges []Edge, cam *Camera) {
	w, h := c.DotsWide(), c.DotsHigh()
	for _, e := range edges {
		x0, y0, _, ok0 := cam.Project(e.A.Pos, w, h)
		x1, y1, _, ok1 := cam.Project(e.B.Pos, w, h)
		if !ok0 && !ok1 || absInt(x1-x0)+absInt(y1-y0) > 4*(w+h) {
			continue
		}
		c.DrawLine(x0, y0, x1, y1)
	}
}
