package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func newSimCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	cmd := &cobra.Command{Use: "run"}
	addSimFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestResolveConfigFlagsOverridePreset(t *testing.T) {
	cmd := newSimCmd(t, "--preset", "heavy", "--steps", "7", "--law", "strain", "--collide")
	cfg, err := resolveConfig(cmd, "parachute")
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Steps != 7 || cfg.Law != "strain" || !cfg.Collision.Enabled {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Scenario != "parachute" {
		t.Errorf("scenario = %q", cfg.Scenario)
	}
}

func TestResolveConfigUnknownPreset(t *testing.T) {
	cmd := newSimCmd(t, "--preset", "nope")
	if _, err := resolveConfig(cmd, "parachute"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestResolveConfigRejectsBadDt(t *testing.T) {
	cmd := newSimCmd(t, "--dt", "-1")
	if _, err := resolveConfig(cmd, "drape"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExperimentConfig(t *testing.T) {
	cmd := newSimCmd(t)
	cfg, err := resolveConfig(cmd, "drape")
	if err != nil {
		t.Fatal(err)
	}
	ec := experimentConfig(cfg)
	if ec.Mesh.N != cfg.Mesh.Cells || ec.Steps != cfg.Steps || ec.Params.NSub != cfg.NSub {
		t.Errorf("experiment config mismatch: %+v", ec)
	}
}

func TestVerifyForcesFlag(t *testing.T) {
	cmd := newSimCmd(t, "--verify-forces")
	cfg, err := resolveConfig(cmd, "parachute")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.VerifyForces || !experimentConfig(cfg).VerifyForces {
		t.Error("--verify-forces not carried into the experiment config")
	}
}
