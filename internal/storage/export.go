package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/arena/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// Export writes a stored run as one JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	return encode(w, meta, states, times)
}

// ExportJSON writes the run to path, or to stdout when path is "-".
func (s *Store) ExportJSON(path, runID string) error {
	if path == "-" {
		return s.Export(os.Stdout, runID)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return s.Export(file, runID)
}

func encode(w io.Writer, meta *RunMetadata, states []dynamo.State, times []float64) error {
	data := ExportData{
		RunMetadata: *meta,
		Times:       times,
		States:      make([][]float64, len(states)),
	}
	for i, st := range states {
		data.States[i] = st
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
