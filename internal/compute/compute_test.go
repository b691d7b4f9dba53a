package compute

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/integrators"
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

func pendulumSystem() *spring.System {
	verts := []spring.Vertex{
		{Class: spring.Canopy, Mass: 1, Fixed: true},
		{Class: spring.Load, Mass: 2},
	}
	verts[0].Link(1, 50, 1, mesh.Vec3{0, 0, -1})
	verts[1].Link(0, 50, 1, mesh.Vec3{0, 0, 1})
	return spring.NewSystem(spring.CurrentDirection, verts, mesh.Vec3{0, 0, -9.8})
}

func TestCPUMatchesDirectIntegration(t *testing.T) {
	sys := pendulumSystem()
	pos := []mesh.Vec3{{0, 0, 0}, {0.3, 0, -1}}
	vel := []mesh.Vec3{{}, {0, 0.2, 0}}

	// reference: the same sub-steps driven by hand
	ref := spring.Pack(pos, vel, nil)
	rk := integrators.NewRK4()
	const nSub, dt = 20, 0.01
	for s := 0; s < nSub; s++ {
		ref = rk.Step(sys, ref, nil, 0, dt/nSub)
	}

	cpu := NewCPUBackend(nil)
	if err := cpu.SpringSolve(sys, pos, vel, nSub, dt); err != nil {
		t.Fatalf("SpringSolve: %v", err)
	}

	gotPos := make([]mesh.Vec3, 2)
	gotVel := make([]mesh.Vec3, 2)
	spring.Unpack(ref, gotPos, gotVel)
	for i := range pos {
		if pos[i] != gotPos[i] || vel[i] != gotVel[i] {
			t.Errorf("slot %d: backend %v %v, reference %v %v", i, pos[i], vel[i], gotPos[i], gotVel[i])
		}
	}
	if pos[0] != (mesh.Vec3{}) {
		t.Errorf("fixed slot moved to %v", pos[0])
	}
}

func TestCPUAdaptiveSubSteps(t *testing.T) {
	sys := pendulumSystem()
	pos := []mesh.Vec3{{0, 0, 0}, {0.3, 0, -1}}
	vel := []mesh.Vec3{{}, {0, 0.2, 0}}

	const nSub, dt = 2, 0.2
	ref := spring.Pack(pos, vel, nil)
	rk := integrators.NewRK4()
	for s := 0; s < 4000; s++ {
		ref = rk.Step(sys, ref, nil, 0, dt/4000)
	}
	wantPos := make([]mesh.Vec3, 2)
	wantVel := make([]mesh.Vec3, 2)
	spring.Unpack(ref, wantPos, wantVel)

	cpu := NewCPUBackend(integrators.NewRK45())
	cpu.Tol = 1e-10
	if err := cpu.SpringSolve(sys, pos, vel, nSub, dt); err != nil {
		t.Fatalf("SpringSolve: %v", err)
	}
	for i := range pos {
		if pos[i].Sub(wantPos[i]).Len() > 1e-6 || vel[i].Sub(wantVel[i]).Len() > 1e-5 {
			t.Errorf("slot %d: adaptive %v %v, reference %v %v", i, pos[i], vel[i], wantPos[i], wantVel[i])
		}
	}
}

func TestCPUFreeFall(t *testing.T) {
	verts := []spring.Vertex{{Class: spring.Load, Mass: 3}}
	sys := spring.NewSystem(spring.RestDirection, verts, mesh.Vec3{0, 0, -10})
	pos := []mesh.Vec3{{0, 0, 0}}
	vel := []mesh.Vec3{{1, 0, 0}}

	if err := NewCPUBackend(nil).SpringSolve(sys, pos, vel, 10, 0.5); err != nil {
		t.Fatal(err)
	}
	want := mesh.Vec3{0.5, 0, -1.25}
	if pos[0].Sub(want).Len() > 1e-12 {
		t.Errorf("position %v, want %v", pos[0], want)
	}
	if math.Abs(vel[0][2]+5) > 1e-12 {
		t.Errorf("velocity %v", vel[0])
	}
}

func TestSpringSolveRejectsBadBuffers(t *testing.T) {
	sys := pendulumSystem()
	err := NewCPUBackend(nil).SpringSolve(sys, make([]mesh.Vec3, 1), make([]mesh.Vec3, 2), 1, 0.1)
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
	if err := NewCPUBackend(nil).SpringSolve(sys, make([]mesh.Vec3, 2), make([]mesh.Vec3, 2), 0, 0.1); err == nil {
		t.Error("expected error for zero sub-steps")
	}
}

func TestSpringSolveReportsBlowUp(t *testing.T) {
	verts := []spring.Vertex{{Mass: 1}}
	sys := spring.NewSystem(spring.RestDirection, verts, mesh.Vec3{0, 0, math.Inf(-1)})
	err := NewCPUBackend(nil).SpringSolve(sys, make([]mesh.Vec3, 1), make([]mesh.Vec3, 1), 2, 0.1)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("got %v, want ErrInvalidState", err)
	}
}

func TestByName(t *testing.T) {
	b, err := ByName("cpu", integrators.NewVerlet())
	if err != nil || b.Name() != "cpu" {
		t.Errorf("cpu: %v, %v", b, err)
	}
	if b, err := ByName("auto", nil); err != nil || !b.Available() {
		t.Errorf("auto: %v, %v", b, err)
	}
	if _, err := ByName("opencl", nil); err == nil {
		t.Error("expected error for unknown backend")
	}
	if GetBackend() == nil {
		t.Error("no active backend")
	}
}
