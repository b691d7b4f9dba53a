package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fabricsim/internal/fabric"
	"github.com/san-kum/fabricsim/internal/mesh"
)

const (
	DefaultDt         = 0.001
	DefaultSteps      = 1000
	DefaultNSub       = 20
	DefaultCells      = 4
	DefaultSize       = 2.0
	DefaultHeight     = 5.0
	DefaultLineLength = 3.0
	DefaultSegments   = 4
	DefaultCollideTol = 0.05
)

type Config struct {
	Scenario     string          `yaml:"scenario"`
	Integrator   string          `yaml:"integrator"`
	Law          string          `yaml:"law"`
	Backend      string          `yaml:"backend"`
	Dt           float64         `yaml:"dt"`
	Steps        int             `yaml:"steps"`
	NSub         int             `yaml:"n_sub"`
	SmoothLayers int             `yaml:"smooth_layers"`
	Gravity      [3]float64      `yaml:"gravity"`
	Material     MaterialConfig  `yaml:"material"`
	Collision    CollisionConfig `yaml:"collision"`
	Mesh         MeshConfig      `yaml:"mesh"`

	VerifyForces bool    `yaml:"verify_forces"`
	Pressure     float64 `yaml:"pressure"`
}

// MaterialConfig holds stiffness, point mass and damping of the canopy
// mesh (s), string lines (l) and gore lines (g).
type MaterialConfig struct {
	Ks          float64 `yaml:"ks"`
	Kl          float64 `yaml:"kl"`
	Kg          float64 `yaml:"kg"`
	Ms          float64 `yaml:"ms"`
	Ml          float64 `yaml:"ml"`
	Mg          float64 `yaml:"mg"`
	LambdaS     float64 `yaml:"lambda_s"`
	LambdaL     float64 `yaml:"lambda_l"`
	LambdaG     float64 `yaml:"lambda_g"`
	Payload     float64 `yaml:"payload"`
	AreaDensity float64 `yaml:"area_density"`
}

type CollisionConfig struct {
	Enabled bool    `yaml:"enabled"`
	Tol     float64 `yaml:"tol"`
	// H is the grid spacing per axis; zeros take the canopy cell size.
	H [3]float64 `yaml:"h"`
}

type MeshConfig struct {
	Cells      int     `yaml:"cells"`
	Size       float64 `yaml:"size"`
	Height     float64 `yaml:"height"`
	LineLength float64 `yaml:"line_length"`
	Segments   int     `yaml:"segments"`
}

func DefaultConfig() *Config {
	p := fabric.DefaultParams()
	return &Config{
		Scenario:     "parachute",
		Integrator:   "rk4",
		Law:          "rest",
		Backend:      "auto",
		Dt:           DefaultDt,
		Steps:        DefaultSteps,
		NSub:         DefaultNSub,
		SmoothLayers: p.SmoothLayers,
		Gravity:      p.Gravity,
		Material: MaterialConfig{
			Ks: p.Ks, Kl: p.Kl, Kg: p.Kg,
			Ms: p.Ms, Ml: p.Ml, Mg: p.Mg,
			LambdaS: p.LambdaS, LambdaL: p.LambdaL, LambdaG: p.LambdaG,
			Payload:     p.Payload,
			AreaDensity: p.AreaDensity,
		},
		Collision: CollisionConfig{Tol: DefaultCollideTol},
		Mesh: MeshConfig{
			Cells:      DefaultCells,
			Size:       DefaultSize,
			Height:     DefaultHeight,
			LineLength: DefaultLineLength,
			Segments:   DefaultSegments,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the material and stepping settings for the propagator.
func (c *Config) Params() fabric.Params {
	m := c.Material
	return fabric.Params{
		Ks: m.Ks, Kl: m.Kl, Kg: m.Kg,
		Ms: m.Ms, Ml: m.Ml, Mg: m.Mg,
		LambdaS: m.LambdaS, LambdaL: m.LambdaL, LambdaG: m.LambdaG,
		Payload:      m.Payload,
		AreaDensity:  m.AreaDensity,
		Gravity:      mesh.Vec3(c.Gravity),
		Dt:           c.Dt,
		NSub:         c.NSub,
		SmoothLayers: c.SmoothLayers,
	}
}

func (c *Config) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.Mesh.Cells < 1 {
		return fmt.Errorf("mesh cells must be at least 1, got %d", c.Mesh.Cells)
	}
	if c.Mesh.Size <= 0 {
		return fmt.Errorf("mesh size must be positive, got %g", c.Mesh.Size)
	}
	if c.Collision.Tol < 0 {
		return fmt.Errorf("collision tol must not be negative, got %g", c.Collision.Tol)
	}
	return c.Params().Validate()
}
