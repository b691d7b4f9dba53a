package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/fabricsim/internal/collision"
	"github.com/san-kum/fabricsim/internal/compute"
	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/fabric"
	"github.com/san-kum/fabricsim/internal/integrators"
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/metrics"
	"github.com/san-kum/fabricsim/internal/spring"
)

type CollisionConfig struct {
	Enabled bool
	Tol     float64
	// H is the grid spacing the correction gap is measured in; zero
	// means the scene's canopy cell size.
	H mesh.Vec3
}

type Config struct {
	Scenario   string
	Integrator string
	Law        string
	Backend    string
	Steps      int
	Params     fabric.Params
	Mesh       MeshConfig
	Collision  CollisionConfig

	// VerifyForces cross-checks kernel springs against the mesh each step.
	VerifyForces bool
	// Pressure is a constant jump across the canopy, reported through the
	// canopy force metric.
	Pressure float64
}

// Frame is the record of one macro step.
type Frame struct {
	Step      int       `json:"step"`
	Time      float64   `json:"time"`
	NumVerts  int       `json:"num_verts"`
	COM       mesh.Vec3 `json:"com"`
	COMVel    mesh.Vec3 `json:"com_vel"`
	MaxSpeed  float64   `json:"max_speed"`
	MaxAt     mesh.Vec3 `json:"max_at"`
	Corrected int       `json:"corrected"`
	Skipped   int       `json:"skipped"`
}

type Result struct {
	History []Frame
	Metrics map[string]float64
	// StepsTaken is short of the configured count when the run was
	// cancelled.
	StepsTaken int
}

type Observer func(f Frame)

type Experiment struct {
	cfg       Config
	log       logr.Logger
	scene     *Scene
	prop      *fabric.Propagator
	resolver  *collision.Resolver
	metrics   []metrics.Metric
	observers []Observer
	step      int
}

func New(cfg Config, log logr.Logger) *Experiment {
	return &Experiment{cfg: cfg, log: log}
}

// Setup builds the scenario geometry and the kernel. Collision handling
// is on when the scenario asks for it or the config enables it.
func (e *Experiment) Setup(reg *Registry, ms ...metrics.Metric) error {
	sc, err := reg.Get(e.cfg.Scenario)
	if err != nil {
		return err
	}
	law, err := spring.ParseLaw(e.cfg.Law)
	if err != nil {
		return err
	}
	integ, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return err
	}
	backend, err := compute.ByName(e.cfg.Backend, integ)
	if err != nil {
		return err
	}
	if err := e.cfg.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}

	scene, err := sc.Build(e.cfg.Mesh, e.cfg.Params)
	if err != nil {
		return fmt.Errorf("build %s: %w", sc.Name, err)
	}
	e.scene = scene
	if e.cfg.Pressure != 0 {
		scene.Group.SetPressure(e.cfg.Pressure)
	}
	e.prop = fabric.NewPropagator(law, backend, e.log.WithName("propagator"))
	e.prop.Verify = e.cfg.VerifyForces
	e.metrics = ms
	e.step = 0

	if scene.Collide || e.cfg.Collision.Enabled {
		h := e.cfg.Collision.H
		if h == (mesh.Vec3{}) {
			h = mesh.Vec3{scene.CellSize, scene.CellSize, scene.CellSize}
		}
		e.resolver = collision.NewResolver(h, e.log.WithName("collision"))
		if e.cfg.Collision.Tol > 0 {
			e.resolver.Tol = e.cfg.Collision.Tol
		}
	}
	e.log.Info("setup", "scenario", sc.Name, "verts", scene.Group.NumVerts(),
		"law", law.String(), "integrator", e.cfg.Integrator, "backend", backend.Name(),
		"collide", e.resolver != nil)
	return nil
}

func (e *Experiment) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Experiment) Scene() *Scene { return e.scene }

// Step advances the scene by one macro step and resolves crossings when
// collision handling is on.
func (e *Experiment) Step(ctx context.Context) (Frame, error) {
	if e.scene == nil {
		return Frame{}, fmt.Errorf("experiment not setup")
	}
	dt := e.scene.Group.Params.Dt
	t := float64(e.step) * dt

	rep, err := e.prop.Advance(ctx, e.scene.Group)
	if err != nil {
		return Frame{}, &dynamo.StepError{Step: e.step, Time: t, Wrapped: err}
	}

	var coll *collision.Report
	if e.resolver != nil {
		coll, err = e.resolver.Resolve(ctx, mesh.FindCrossings(e.scene.Interface))
		if err != nil {
			return Frame{}, &dynamo.StepError{Step: e.step, Time: t, Wrapped: err}
		}
	}

	e.step++
	f := Frame{
		Step:     e.step,
		Time:     float64(e.step) * dt,
		NumVerts: rep.NumVerts,
		COM:      rep.COM.Pos,
		COMVel:   rep.COM.Vel,
		MaxSpeed: rep.Speed.Max,
		MaxAt:    rep.Speed.At,
	}
	if coll != nil {
		f.Corrected = coll.Corrected
		f.Skipped = coll.Skipped
	}

	s := metrics.Sample{Time: f.Time, Interface: e.scene.Interface, Group: e.scene.Group, Step: rep, Collisions: coll}
	for _, m := range e.metrics {
		m.Observe(s)
	}
	for _, o := range e.observers {
		o(f)
	}
	return f, nil
}

// Run takes the configured number of steps. On cancellation or a failed
// step the history so far is returned with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.scene == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if e.cfg.Steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", e.cfg.Steps)
	}
	for _, m := range e.metrics {
		m.Reset()
	}

	res := &Result{
		History: make([]Frame, 0, e.cfg.Steps),
		Metrics: make(map[string]float64),
	}
	var runErr error
	for i := 0; i < e.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}
		f, err := e.Step(ctx)
		if err != nil {
			runErr = err
			break
		}
		res.History = append(res.History, f)
		res.StepsTaken++
	}

	for _, m := range e.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	if runErr == nil && len(res.History) > 0 {
		last := res.History[len(res.History)-1]
		e.log.Info("run complete", "steps", res.StepsTaken, "com", last.COM, "maxSpeed", res.Metrics["max_speed"])
	}
	return res, runErr
}

// Close releases the kernel backend.
func (e *Experiment) Close() {
	if e.prop != nil {
		e.prop.Backend.Cleanup()
	}
}
