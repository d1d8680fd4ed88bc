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

	"github.com/elliotchance/orderedmap/v2"
	"github.com/san-kum/arena/internal/config"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/sim"
)

// Files inside a run directory.
const (
	MetadataFile = "metadata.json"
	StatesFile   = "states.csv"
	ConfigFile   = "config.yaml"
)

var stateColumns = [dynamo.StateStride]string{"x", "y", "theta", "vx", "vy", "omega"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type RunMetadata struct {
	ID         string    `json:"id"`
	Scenario   string    `json:"scenario"`
	Timestamp  time.Time `json:"timestamp"`
	Seed       int64     `json:"seed"`
	Dt         float64   `json:"dt"`
	Duration   float64   `json:"duration"`
	Integrator string    `json:"integrator"`
	Controller string    `json:"controller"`
	Bodies     int       `json:"bodies"`
	Steps      int       `json:"steps"`
	// Checksum is the xxh3 hash of the final state, in hex.
	Checksum string   `json:"checksum"`
	Metrics  []Metric `json:"metrics"`
	Errors   []string `json:"errors,omitempty"`
}

// Metric looks up a metric by name.
func (m *RunMetadata) Metric(name string) (float64, bool) {
	for _, v := range m.Metrics {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

func metricList(om *orderedmap.OrderedMap[string, float64]) []Metric {
	if om == nil {
		return nil
	}
	out := make([]Metric, 0, om.Len())
	for el := om.Front(); el != nil; el = el.Next() {
		out = append(out, Metric{Name: el.Key, Value: el.Value})
	}
	return out
}

// Save writes a run directory holding the config, the metadata and the
// recorded states. It returns the run ID.
func (s *Store) Save(scenario string, cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_s%d_%d", scenario, cfg.Seed, now.UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	bodies := 0
	if len(result.States) > 0 {
		bodies = result.States[0].Bodies()
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   scenario,
		Timestamp:  now,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Bodies:     bodies,
		Steps:      result.StepsTaken,
		Checksum:   strconv.FormatUint(result.FinalChecksum, 16),
		Metrics:    metricList(result.Metrics),
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, MetadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, ConfigFile), cfg); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, StatesFile), bodies, result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, bodies int, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"time"}
	for i := 0; i < bodies; i++ {
		for _, c := range stateColumns {
			header = append(header, fmt.Sprintf("b%d_%s", i, c))
		}
	}
	for i := 0; i < bodies; i++ {
		header = append(header, fmt.Sprintf("b%d_thrust", i), fmt.Sprintf("b%d_torque", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// Controls[i-1] produced States[i]; the initial row has no control.
	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if i > 0 && i-1 < len(result.Controls) {
			for _, val := range result.Controls[i-1] {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
		} else {
			for j := 0; j < bodies*dynamo.ControlStride; j++ {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), MetadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), ConfigFile))
}

// LoadStates reads the recorded states and their times back. Control columns
// are skipped.
func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	width := meta.Bodies * dynamo.StateStride

	file, err := os.Open(filepath.Join(s.Dir(runID), StatesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) < width+1 {
			return nil, nil, fmt.Errorf("%s row %d: %d columns, want at least %d", StatesFile, i+1, len(record), width+1)
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", StatesFile, i+1, err)
		}

		state := make(dynamo.State, width)
		for j := range state {
			if state[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, nil, fmt.Errorf("%s row %d: %w", StatesFile, i+1, err)
			}
		}
		times = append(times, t)
		states = append(states, state)
	}

	return states, times, nil
}
