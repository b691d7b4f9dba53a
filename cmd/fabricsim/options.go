package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/fabricsim/internal/config"
	"github.com/san-kum/fabricsim/internal/experiment"
	"github.com/san-kum/fabricsim/internal/mesh"
)

// resolveConfig layers defaults, then the preset, then the config file,
// then any flag set on the command line.
func resolveConfig(cmd *cobra.Command, scenario string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(scenario, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenario))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Scenario = scenario

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("nsub") {
		cfg.NSub = nSub
	}
	if flags.Changed("law") {
		cfg.Law = law
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("collide") {
		cfg.Collision.Enabled = collide
	}
	if flags.Changed("verify-forces") {
		cfg.VerifyForces = verifyForces
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func experimentConfig(cfg *config.Config) experiment.Config {
	return experiment.Config{
		Scenario:   cfg.Scenario,
		Integrator: cfg.Integrator,
		Law:        cfg.Law,
		Backend:    cfg.Backend,
		Steps:      cfg.Steps,
		Params:     cfg.Params(),
		Mesh: experiment.MeshConfig{
			N:          cfg.Mesh.Cells,
			Size:       cfg.Mesh.Size,
			Height:     cfg.Mesh.Height,
			LineLength: cfg.Mesh.LineLength,
			Segments:   cfg.Mesh.Segments,
		},
		Collision: experiment.CollisionConfig{
			Enabled: cfg.Collision.Enabled,
			Tol:     cfg.Collision.Tol,
			H:       mesh.Vec3(cfg.Collision.H),
		},
		VerifyForces: cfg.VerifyForces,
		Pressure:     cfg.Pressure,
	}
}
