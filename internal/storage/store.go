package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fabricsim/internal/experiment"
	"github.com/san-kum/fabricsim/internal/mesh"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	StepsTaken int                `json:"steps_taken"`
	NSub       int                `json:"n_sub"`
	Integrator string             `json:"integrator"`
	Law        string             `json:"law"`
	Backend    string             `json:"backend"`
	Metrics    map[string]float64 `json:"metrics"`
}

var historyHeader = []string{
	"step", "time", "num_verts",
	"com_x", "com_y", "com_z",
	"vcom_x", "vcom_y", "vcom_z",
	"max_speed", "max_x", "max_y", "max_z",
	"corrected", "skipped",
}

// Save writes metadata.json and history.csv under a fresh run directory
// and returns the run id. meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, result *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Scenario, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.StepsTaken = result.StepsTaken
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "history.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(historyHeader); err != nil {
		return "", err
	}
	for _, f := range result.History {
		if err := w.Write(frameRow(f)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func frameRow(f experiment.Frame) []string {
	row := []string{strconv.Itoa(f.Step), ftoa(f.Time), strconv.Itoa(f.NumVerts)}
	for _, v := range []mesh.Vec3{f.COM, f.COMVel} {
		row = append(row, ftoa(v[0]), ftoa(v[1]), ftoa(v[2]))
	}
	row = append(row, ftoa(f.MaxSpeed), ftoa(f.MaxAt[0]), ftoa(f.MaxAt[1]), ftoa(f.MaxAt[2]))
	return append(row, strconv.Itoa(f.Corrected), strconv.Itoa(f.Skipped))
}

func parseFrame(rec []string) (experiment.Frame, error) {
	if len(rec) != len(historyHeader) {
		return experiment.Frame{}, fmt.Errorf("expected %d fields, got %d", len(historyHeader), len(rec))
	}
	var f experiment.Frame
	ints := []*int{&f.Step, &f.NumVerts, &f.Corrected, &f.Skipped}
	for k, col := range []int{0, 2, 13, 14} {
		v, err := strconv.Atoi(rec[col])
		if err != nil {
			return f, fmt.Errorf("%s: %w", historyHeader[col], err)
		}
		*ints[k] = v
	}
	floats := []*float64{
		&f.Time,
		&f.COM[0], &f.COM[1], &f.COM[2],
		&f.COMVel[0], &f.COMVel[1], &f.COMVel[2],
		&f.MaxSpeed, &f.MaxAt[0], &f.MaxAt[1], &f.MaxAt[2],
	}
	for k, col := range []int{1, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12} {
		v, err := strconv.ParseFloat(rec[col], 64)
		if err != nil {
			return f, fmt.Errorf("%s: %w", historyHeader[col], err)
		}
		*floats[k] = v
	}
	return f, nil
}

// List returns the stored runs, oldest first. Directories without a
// readable metadata file are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadHistory(runID string) ([]experiment.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "history.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []experiment.Frame{}, nil
	}

	frames := make([]experiment.Frame, 0, len(records)-1)
	for i, rec := range records[1:] {
		f, err := parseFrame(rec)
		if err != nil {
			return nil, fmt.Errorf("%s history row %d: %w", runID, i+1, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
