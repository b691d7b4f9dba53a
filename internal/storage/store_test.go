package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/fabricsim/internal/experiment"
	"github.com/san-kum/fabricsim/internal/mesh"
)

func sampleResult() *experiment.Result {
	return &experiment.Result{
		History: []experiment.Frame{
			{Step: 1, Time: 0.001, NumVerts: 18, COM: mesh.Vec3{0, 0, 4.9}, COMVel: mesh.Vec3{0, 0, -0.0098},
				MaxSpeed: 0.0098, MaxAt: mesh.Vec3{0, 0, 2}},
			{Step: 2, Time: 0.002, NumVerts: 18, COM: mesh.Vec3{0.125, -1.0 / 3, 4.8}, COMVel: mesh.Vec3{0, 0, -0.0196},
				MaxSpeed: 0.0196, MaxAt: mesh.Vec3{0.5, 0.5, 2}, Corrected: 3, Skipped: 1},
		},
		Metrics:    map[string]float64{"max_speed": 0.0196},
		StepsTaken: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	res := sampleResult()
	runID, err := st.Save(RunMetadata{Scenario: "parachute", Dt: 0.001, Steps: 5, Law: "rest"}, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID || meta.Scenario != "parachute" || meta.Law != "rest" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Steps != 5 || meta.StepsTaken != 2 {
		t.Errorf("expected 2 of 5 steps, got %d of %d", meta.StepsTaken, meta.Steps)
	}
	if meta.Metrics["max_speed"] != 0.0196 {
		t.Errorf("expected max_speed 0.0196, got %f", meta.Metrics["max_speed"])
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if !reflect.DeepEqual(history, res.History) {
		t.Errorf("history mismatch:\n got %+v\nwant %+v", history, res.History)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for _, sc := range []string{"drape", "parachute"} {
		if _, err := st.Save(RunMetadata{Scenario: sc}, sampleResult()); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Scenario != "drape" || runs[1].Scenario != "parachute" {
		t.Errorf("expected runs oldest first, got %s, %s", runs[0].Scenario, runs[1].Scenario)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadHistoryRejectsShortRows(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runID, err := st.Save(RunMetadata{Scenario: "drape"}, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, runID, "history.csv")
	if err := os.WriteFile(path, []byte("step,time\n1,0.1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadHistory(runID); err == nil {
		t.Error("expected error for a malformed history")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Scenario: "parachute", Integrator: "rk4"}, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.ID != runID || got.Integrator != "rk4" {
		t.Errorf("unexpected metadata %+v", got.RunMetadata)
	}
	if len(got.History) != 2 || got.History[1].Corrected != 3 {
		t.Errorf("unexpected history %+v", got.History)
	}
}
