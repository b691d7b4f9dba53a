package compute

import (
	"fmt"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

// Backend runs the sub-stepped spring kernel. SpringSolve advances pos
// and vel in place by nSub steps of dt/nSub and blocks until done; the
// buffers must not be touched while it runs.
type Backend interface {
	Name() string
	Available() bool
	SpringSolve(sys *spring.System, pos, vel []mesh.Vec3, nSub int, dt float64) error
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

func AutoSelectBackend() Backend {
	cuda := NewCUDABackend()
	if cuda.Available() {
		return cuda
	}
	return NewCPUBackend(nil)
}

// ByName returns "cpu", "cuda" or "auto". integ drives the CPU kernel
// and the CUDA fallback; nil means RK4.
func ByName(name string, integ dynamo.Integrator) (Backend, error) {
	switch name {
	case "", "auto":
		cuda := NewCUDABackend()
		if cuda.Available() {
			return cuda, nil
		}
		return NewCPUBackend(integ), nil
	case "cpu":
		return NewCPUBackend(integ), nil
	case "cuda":
		cuda := NewCUDABackend()
		if !cuda.Available() {
			return nil, fmt.Errorf("cuda backend not available (build with -tags cuda)")
		}
		return cuda, nil
	}
	return nil, fmt.Errorf("unknown backend: %s", name)
}

func checkBuffers(sys *spring.System, pos, vel []mesh.Vec3, nSub int, dt float64) error {
	if len(pos) != len(sys.Verts) || len(vel) != len(sys.Verts) {
		return fmt.Errorf("%d positions, %d velocities for %d slots: %w",
			len(pos), len(vel), len(sys.Verts), dynamo.ErrDimensionMismatch)
	}
	if nSub <= 0 || dt <= 0 {
		return fmt.Errorf("sub-steps %d, dt %g: both must be positive", nSub, dt)
	}
	return nil
}
