package spring

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
)

var laws = []Law{CurrentDirection, RestDirection, Strain}

func TestForceZeroAtRest(t *testing.T) {
	self := Vec3{0.25, -1, 2}
	nb := Vec3{1.25, -1, 2}
	for _, law := range laws {
		t.Run(law.String(), func(t *testing.T) {
			f := law.Force(7.5, self, nb, 1.0, Vec3{1, 0, 0})
			if f != (Vec3{}) {
				t.Errorf("force at rest: got %v, want exactly zero", f)
			}
		})
	}
}

func TestForceRestoresStretch(t *testing.T) {
	for _, law := range laws {
		t.Run(law.String(), func(t *testing.T) {
			// stretched along the rest direction: pulls self toward nb
			f := law.Force(2, Vec3{}, Vec3{1.5, 0, 0}, 1.0, Vec3{1, 0, 0})
			if law == Strain {
				// pure stretch keeps the direction, so strain sees nothing
				if f.Len() != 0 {
					t.Errorf("strain law under pure stretch: got %v", f)
				}
				return
			}
			if math.Abs(f[0]-1.0) > 1e-12 || f[1] != 0 || f[2] != 0 {
				t.Errorf("got %v, want (1, 0, 0)", f)
			}
		})
	}
}

func TestRestDirectionThirdLaw(t *testing.T) {
	p := Vec3{0.1, 0.2, -0.3}
	q := Vec3{1.4, -0.7, 0.9}
	restDir := Vec3{0, 1, 0}
	const k, l0 = 3.0, 0.8

	fp := RestDirection.Force(k, p, q, l0, restDir)
	fq := RestDirection.Force(k, q, p, l0, restDir.Mul(-1))
	if sum := fp.Add(fq); sum.Len() > 1e-14 {
		t.Errorf("forces do not cancel: %v + %v = %v", fp, fq, sum)
	}
}

func TestParseLaw(t *testing.T) {
	tests := []struct {
		in   string
		want Law
		err  bool
	}{
		{"current", CurrentDirection, false},
		{"REST", RestDirection, false},
		{" strain ", Strain, false},
		{"hooke", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLaw(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseLaw(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseLaw(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func canopyWithEdge(t *testing.T) (*mesh.Surface, [][]*mesh.Vertex) {
	t.Helper()
	in := mesh.NewInterface()
	s, grid, err := mesh.SquareCanopy(in, "canopy", 2, 2, Vec3{})
	if err != nil {
		t.Fatal(err)
	}
	a := in.AddNode("a", mesh.NodeString, grid[0][0])
	b := in.AddNode("b", mesh.NodeString, grid[2][0])
	if _, err := in.AddCurve("edge", mesh.CurveMono, a, b,
		[]*mesh.Vertex{grid[0][0], grid[1][0], grid[2][0]}); err != nil {
		t.Fatal(err)
	}
	in.SetRestState()
	return s, grid
}

func TestAssemblerInteriorPoint(t *testing.T) {
	s, grid := canopyWithEdge(t)
	center := grid[1][1]
	tri := mesh.TrisAroundPoint(center, s)[0]

	for _, law := range laws {
		asm := NewAssembler(law)
		f, err := asm.ForceAtPoint(center, tri, 10)
		if err != nil {
			t.Fatalf("%v: %v", law, err)
		}
		if f.Len() > 1e-12 {
			t.Errorf("%v: force at rest %v", law, f)
		}
	}

	center.Pos = Vec3{0, 0, 0.1}
	f, err := NewAssembler(RestDirection).ForceAtPoint(center, tri, 10)
	if err != nil {
		t.Fatal(err)
	}
	if f[2] >= 0 {
		t.Errorf("lifted center should be pulled down, got %v", f)
	}
	// six neighbors each pull by -k dz
	if math.Abs(f[2]+6*10*0.1) > 1e-12 {
		t.Errorf("vertical force %g, want %g", f[2], -6.0)
	}
}

func TestAssemblerBoundarySide(t *testing.T) {
	s, grid := canopyWithEdge(t)
	p := grid[1][0]
	tri := mesh.TrisAroundPoint(p, s)[0]

	_, err := NewAssembler(CurrentDirection).ForceAtPoint(p, tri, 1)
	if !errors.Is(err, dynamo.ErrBoundarySpring) {
		t.Fatalf("got %v, want ErrBoundarySpring", err)
	}
	if !dynamo.IsFatal(err) {
		t.Error("boundary spring error should be fatal")
	}
}

func TestAssemblerRegisteredPoint(t *testing.T) {
	s, grid := canopyWithEdge(t)
	p := grid[1][0]
	p.Registered = true
	p.Pos = p.Pos.Add(Vec3{0, 0, 1})

	f, err := NewAssembler(RestDirection).ForceAtPoint(p, mesh.TrisAroundPoint(p, s)[0], 1)
	if err != nil || f != (Vec3{}) {
		t.Errorf("registered point: got %v, %v", f, err)
	}
}

func twoPointSystem(law Law) *System {
	verts := []Vertex{
		{Class: Canopy, Mass: 2, Lambda: 0.5},
		{Class: Canopy, Mass: 2, Lambda: 0.5},
	}
	verts[0].Link(1, 4, 1, Vec3{1, 0, 0})
	verts[1].Link(0, 4, 1, Vec3{-1, 0, 0})
	return NewSystem(law, verts, Vec3{})
}

func TestSystemDerive(t *testing.T) {
	sys := twoPointSystem(RestDirection)
	pos := []Vec3{{0, 0, 0}, {1.5, 0, 0}}
	vel := []Vec3{{0, 0, 1}, {0, 0, 0}}
	x := Pack(pos, vel, nil)

	if sys.StateDim() != len(x) {
		t.Fatalf("state dim %d, buffer %d", sys.StateDim(), len(x))
	}
	dx := sys.Derive(x, nil, 0)

	// dx/dt = v
	if dx[2] != 1 {
		t.Errorf("position rate: got %v", dx[:3])
	}
	// a0 = (k*0.5 x̂ - λ v) / m = (2, 0, -0.5)/2
	if math.Abs(dx[6]-1) > 1e-12 || math.Abs(dx[8]+0.25) > 1e-12 {
		t.Errorf("accel 0: got %v", dx[6:9])
	}
	if math.Abs(dx[9]+1) > 1e-12 {
		t.Errorf("accel 1: got %v", dx[9:12])
	}

	sys.Verts[0].Fixed = true
	dx = sys.Derive(x, nil, 0)
	for k := 0; k < 3; k++ {
		if dx[k] != 0 || dx[6+k] != 0 {
			t.Errorf("fixed slot moves: %v", dx)
		}
	}
}

func TestSystemGravity(t *testing.T) {
	sys := twoPointSystem(CurrentDirection)
	sys.Gravity = Vec3{0, 0, -9.8}
	x := Pack([]Vec3{{0, 0, 0}, {1, 0, 0}}, make([]Vec3, 2), nil)
	a := sys.Accel(1, x)
	if a != (Vec3{0, 0, -9.8}) {
		t.Errorf("free fall at rest length: got %v", a)
	}
}

func TestPackUnpackExact(t *testing.T) {
	pos := []Vec3{{0.1, 1.0 / 3.0, math.Pi}, {-1e-17, 2, math.Nextafter(1, 2)}}
	vel := []Vec3{{math.SmallestNonzeroFloat64, 0, -0}, {7, 8, 9}}

	st := Pack(pos, vel, make(dynamo.State, 1))
	gotPos := make([]Vec3, 2)
	gotVel := make([]Vec3, 2)
	Unpack(st, gotPos, gotVel)

	for i := range pos {
		if gotPos[i] != pos[i] || gotVel[i] != vel[i] {
			t.Errorf("slot %d: got %v %v, want %v %v", i, gotPos[i], gotVel[i], pos[i], vel[i])
		}
	}
}
