package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/fabricsim/internal/fabric"
	"github.com/san-kum/fabricsim/internal/mesh"
)

// MeshConfig sizes the generated geometry.
type MeshConfig struct {
	// N is the number of canopy cells per side.
	N          int
	Size       float64
	Height     float64
	LineLength float64
	Segments   int
}

// Scene is a built scenario: the interface, the group the propagator
// moves, and whether crossings are resolved after each step.
type Scene struct {
	Interface *mesh.Interface
	Group     *fabric.Group
	Collide   bool
	// CellSize is the canopy grid spacing, the default collision grid.
	CellSize float64
}

type Scenario struct {
	Name        string
	Description string
	Build       func(m MeshConfig, p fabric.Params) (*Scene, error)
}

type Registry struct {
	scenarios map[string]Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}
	r.Register(Scenario{
		Name:        "equilibrium",
		Description: "flat canopy at rest with one pinned corner and no gravity",
		Build:       buildEquilibrium,
	})
	r.Register(Scenario{
		Name:        "parachute",
		Description: "canopy hung from a payload by four string lines, falling",
		Build:       buildParachute,
	})
	r.Register(Scenario{
		Name:        "drape",
		Description: "free canopy falling onto a rigid box",
		Build:       buildDrape,
	})
	return r
}

func (r *Registry) Register(s Scenario) { r.scenarios[s.Name] = s }

func (r *Registry) Get(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario: %s", name)
	}
	return s, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkMesh(m MeshConfig) error {
	if m.N < 1 {
		return fmt.Errorf("mesh: need at least one cell, got %d", m.N)
	}
	if m.Size <= 0 {
		return fmt.Errorf("mesh: size must be positive, got %g", m.Size)
	}
	return nil
}

func buildEquilibrium(m MeshConfig, p fabric.Params) (*Scene, error) {
	if err := checkMesh(m); err != nil {
		return nil, err
	}
	in := mesh.NewInterface()
	_, grid, err := mesh.SquareCanopy(in, "canopy", m.N, m.Size, mesh.Vec3{0, 0, m.Height})
	if err != nil {
		return nil, err
	}
	grid[0][0].Registered = true
	in.SetRestState()

	p.Gravity = mesh.Vec3{}
	return &Scene{Interface: in, Group: fabric.NewGroup(in, p), CellSize: m.Size / float64(m.N)}, nil
}

func buildParachute(m MeshConfig, p fabric.Params) (*Scene, error) {
	if err := checkMesh(m); err != nil {
		return nil, err
	}
	in := mesh.NewInterface()
	if _, err := mesh.NewParachute(in, m.N, m.Size, m.Height, m.LineLength, m.Segments); err != nil {
		return nil, err
	}
	in.SetRestState()
	return &Scene{Interface: in, Group: fabric.NewGroup(in, p), CellSize: m.Size / float64(m.N)}, nil
}

// buildDrape hangs the canopy a quarter cell above a box. The box walls
// sit between grid lines so every canopy triangle at a wall crosses it
// instead of lying in its plane.
func buildDrape(m MeshConfig, p fabric.Params) (*Scene, error) {
	if err := checkMesh(m); err != nil {
		return nil, err
	}
	cell := m.Size / float64(m.N)
	in := mesh.NewInterface()
	if _, _, err := mesh.SquareCanopy(in, "canopy", m.N, m.Size, mesh.Vec3{0, 0, m.Height}); err != nil {
		return nil, err
	}
	w := (float64(m.N/4) + 0.6) * cell
	top := m.Height - cell/4
	if _, err := mesh.Box(in, "box", mesh.WaveNeumann, mesh.Vec3{-w, -w, top - 2*w}, mesh.Vec3{w, w, top}); err != nil {
		return nil, err
	}
	in.SetRestState()
	return &Scene{Interface: in, Group: fabric.NewGroup(in, p), Collide: true, CellSize: cell}, nil
}
