package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/fabricsim/internal/experiment"
)

type ExportData struct {
	RunMetadata
	History []experiment.Frame `json:"history"`
}

// ExportJSON writes a stored run, metadata and history, as one JSON
// document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	history, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, History: history})
}
