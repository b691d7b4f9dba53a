package experiment

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/go-logr/logr"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/fabric"
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/metrics"
)

func testConfig(scenario string) Config {
	p := fabric.DefaultParams()
	p.NSub = 10
	return Config{
		Scenario:   scenario,
		Integrator: "rk4",
		Law:        "rest",
		Backend:    "cpu",
		Steps:      20,
		Params:     p,
		Mesh:       MeshConfig{N: 2, Size: 2, Height: 5, LineLength: 3, Segments: 3},
	}
}

func setup(t *testing.T, cfg Config, ms ...metrics.Metric) *Experiment {
	t.Helper()
	exp := New(cfg, logr.Discard())
	if err := exp.Setup(NewRegistry(), ms...); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(exp.Close)
	return exp
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	want := []string{"drape", "equilibrium", "parachute"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if _, err := r.Get("nonexistent"); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown scenario", func(c *Config) { c.Scenario = "nonexistent" }},
		{"unknown law", func(c *Config) { c.Law = "hooke" }},
		{"unknown integrator", func(c *Config) { c.Integrator = "midpoint" }},
		{"unknown backend", func(c *Config) { c.Backend = "tpu" }},
		{"no cells", func(c *Config) { c.Mesh.N = 0 }},
		{"zero mass", func(c *Config) { c.Params.Ms = 0 }},
	}
	for _, tt := range tests {
		cfg := testConfig("parachute")
		tt.modify(&cfg)
		if err := New(cfg, logr.Discard()).Setup(NewRegistry()); err == nil {
			t.Errorf("%s: expected setup error", tt.name)
		}
	}
}

func TestStepBeforeSetup(t *testing.T) {
	exp := New(testConfig("parachute"), logr.Discard())
	if _, err := exp.Step(context.Background()); err == nil {
		t.Error("expected error stepping before setup")
	}
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error running before setup")
	}
}

func TestEquilibriumStaysPut(t *testing.T) {
	ke := metrics.NewKineticEnergy()
	exp := setup(t, testConfig("equilibrium"), ke, metrics.NewMaxSpeed())

	in := exp.Scene().Interface
	before := make([]mesh.Vec3, len(in.Vertices))
	for i, v := range in.Vertices {
		before[i] = v.Pos
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.History) != 20 || res.StepsTaken != 20 {
		t.Fatalf("expected 20 frames, got %d (%d taken)", len(res.History), res.StepsTaken)
	}
	for i, v := range in.Vertices {
		if v.Pos != before[i] {
			t.Errorf("vertex %d moved from %v to %v", i, before[i], v.Pos)
		}
	}
	if res.Metrics["kinetic_energy"] != 0 || res.Metrics["max_speed"] != 0 {
		t.Errorf("expected a quiet run, got %v", res.Metrics)
	}
}

func TestParachuteFalls(t *testing.T) {
	exp := setup(t, testConfig("parachute"), metrics.Defaults()...)

	frames := 0
	exp.AddObserver(func(Frame) { frames++ })

	start := fabric.ComputeCenterOfMass(exp.Scene().Group).Pos
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frames != 20 {
		t.Errorf("observer saw %d frames, want 20", frames)
	}

	last := res.History[len(res.History)-1]
	if last.NumVerts != 18 {
		t.Errorf("expected 18 verts, got %d", last.NumVerts)
	}
	if math.Abs(last.Time-20*exp.Scene().Group.Params.Dt) > 1e-12 {
		t.Errorf("unexpected final time %g", last.Time)
	}
	if last.COM[2] >= start[2] || last.COMVel[2] >= 0 {
		t.Errorf("expected the parachute to fall: com %v -> %v, vel %v", start, last.COM, last.COMVel)
	}
	if res.Metrics["corrections"] != 0 {
		t.Errorf("no collision handling expected, got %g corrections", res.Metrics["corrections"])
	}
}

// boxBounds returns the corners of the axis-aligned rigid surface name.
func boxBounds(t *testing.T, in *mesh.Interface, name string) (lo, hi mesh.Vec3, s *mesh.Surface) {
	t.Helper()
	for _, surf := range in.Surfaces {
		if surf.Name != name {
			continue
		}
		lo = mesh.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
		hi = mesh.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
		for _, p := range surf.Points() {
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], p.Pos[k])
				hi[k] = math.Max(hi[k], p.Pos[k])
			}
		}
		return lo, hi, surf
	}
	t.Fatalf("no surface %q", name)
	return
}

func strictlyInside(p, lo, hi mesh.Vec3) bool {
	const eps = 1e-9
	for k := 0; k < 3; k++ {
		if p[k] <= lo[k]+eps || p[k] >= hi[k]-eps {
			return false
		}
	}
	return true
}

func TestDrapeRestsOnBox(t *testing.T) {
	for _, n := range []int{2, 4} {
		cfg := testConfig("drape")
		cfg.Mesh.N = n
		cfg.Params.Dt = 0.002
		cfg.Steps = 1500
		corr := metrics.NewCorrections()
		exp := setup(t, cfg, corr)

		in := exp.Scene().Interface
		lo, hi, box := boxBounds(t, in, "box")
		if hi[2] >= cfg.Mesh.Height {
			t.Fatalf("n=%d: box top %g not below the canopy", n, hi[2])
		}
		for k := 0; k < 2; k++ {
			if r := math.Mod(hi[k]/(cfg.Mesh.Size/float64(n)), 0.5); r < 1e-9 || r > 0.5-1e-9 {
				t.Errorf("n=%d: box wall at %g lies on a grid line", n, hi[k])
			}
		}

		var center *mesh.Vertex
		for _, v := range in.Vertices {
			if v.Pos == (mesh.Vec3{0, 0, cfg.Mesh.Height}) {
				center = v
			}
		}
		if center == nil {
			t.Fatalf("n=%d: no canopy center", n)
		}

		exp.AddObserver(func(f Frame) {
			for _, s := range in.Surfaces {
				if s == box {
					continue
				}
				for _, p := range s.Points() {
					if strictlyInside(p.Pos, lo, hi) {
						t.Fatalf("n=%d step %d: point %v inside the box after resolving", n, f.Step, p.Pos)
					}
				}
			}
		})

		if _, err := exp.Run(context.Background()); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if corr.Value() == 0 {
			t.Errorf("n=%d: expected the canopy to hit the box", n)
		}
		if center.Pos[2] < hi[2] || center.Pos[2] > hi[2]+0.1 {
			t.Errorf("n=%d: canopy center at z=%g, want resting on the box top %g", n, center.Pos[2], hi[2])
		}
	}
}

func TestVerifyForces(t *testing.T) {
	for _, name := range []string{"parachute", "drape"} {
		cfg := testConfig(name)
		cfg.Mesh.N = 4
		cfg.VerifyForces = true
		if _, err := setup(t, cfg).Run(context.Background()); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestPressureReachesCanopyForce(t *testing.T) {
	cfg := testConfig("parachute")
	cfg.Pressure = 3
	res, err := setup(t, cfg, metrics.Defaults()...).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// the canopy starts flat with area Size², so the force is about 3·4
	if f := res.Metrics["canopy_force"]; math.Abs(f-12) > 1.2 {
		t.Errorf("canopy_force = %g, want about 12", f)
	}

	res, err = setup(t, testConfig("parachute"), metrics.Defaults()...).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f := res.Metrics["canopy_force"]; f != 0 {
		t.Errorf("canopy_force without pressure = %g", f)
	}
}

func TestRunHonorsContext(t *testing.T) {
	exp := setup(t, testConfig("parachute"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := exp.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", res.StepsTaken)
	}
}

func TestStepErrorCarriesStep(t *testing.T) {
	exp := setup(t, testConfig("parachute"))
	exp.Scene().Group.Params.NSub = 0

	_, err := exp.Step(context.Background())
	var se *dynamo.StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected a StepError, got %v", err)
	}
	if se.Step != 0 {
		t.Errorf("expected step 0, got %d", se.Step)
	}
}

func TestEnsembleRunsEveryLaw(t *testing.T) {
	laws := []string{"current", "rest", "strain"}
	en := NewEnsemble(NewRegistry(), testConfig("parachute"), logr.Discard())

	results, err := en.RunLaws(context.Background(), laws)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(laws) {
		t.Fatalf("expected %d results, got %d", len(laws), len(results))
	}
	for i, r := range results {
		if len(r.History) != 20 {
			t.Errorf("%s: expected 20 frames, got %d", laws[i], len(r.History))
		}
		if _, ok := r.Metrics["kinetic_energy"]; !ok {
			t.Errorf("%s: missing default metrics", laws[i])
		}
	}

	if _, err := en.RunLaws(context.Background(), []string{"rest", "bogus"}); err == nil {
		t.Error("expected error for an unknown law")
	}
}
