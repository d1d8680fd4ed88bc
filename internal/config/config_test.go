package config

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/wallfield"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "rk4" {
		t.Errorf("expected integrator rk4, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("invalid: %v", err)
			}
			if _, err := cfg.BuildField(); err != nil {
				t.Errorf("field: %v", err)
			}
		})
	}
}

func TestGetPresetReturnsFreshCopies(t *testing.T) {
	a := GetPreset("pair")
	a.Bodies[0].X = 99
	if b := GetPreset("pair"); b.Bodies[0].X == 99 {
		t.Error("preset shared between calls")
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	data := []byte(`
controller: seek
physics:
  stiffness: 2500
spawn:
  count: 4
arena:
  kind: box
  width: 40
  height: 30
  resolution: 1
  obstacles:
    - {x: 20, y: 15, radius: 3}
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Controller != "seek" || cfg.Physics.Stiffness != 2500 || cfg.Spawn.Count != 4 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Physics.AirDensity != 0.1 || cfg.Dt != DefaultDt {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if len(cfg.Arena.Obstacles) != 1 || cfg.Arena.Obstacles[0].Radius != 3 {
		t.Errorf("obstacles = %+v", cfg.Arena.Obstacles)
	}

	field, err := cfg.BuildField()
	if err != nil {
		t.Fatal(err)
	}
	if field.Width() != 41 || field.Height() != 31 {
		t.Errorf("field %dx%d", field.Width(), field.Height())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	if err := os.WriteFile(path, []byte("physics:\n  stifness: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for misspelt key")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pair.yaml")
	want := GetPreset("pair")
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Bodies) != 2 || got.Bodies[1].X != 10.75 || got.Bodies[1].Mass != 1 || got.Arena.Kind != ArenaOpen {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key, value string
		check      func() bool
	}{
		{"physics.stiffness", "1234.5", func() bool { return cfg.Physics.Stiffness == 1234.5 }},
		{"spawn.count", "7", func() bool { return cfg.Spawn.Count == 7 }},
		{"controller", "seek", func() bool { return cfg.Controller == "seek" }},
		{"validate_state", "false", func() bool { return !cfg.ValidateState }},
		{"arena.kind", "open", func() bool { return cfg.Arena.Kind == ArenaOpen }},
	}
	for _, tt := range tests {
		if err := cfg.Set(tt.key, tt.value); err != nil {
			t.Errorf("Set(%s): %v", tt.key, err)
			continue
		}
		if !tt.check() {
			t.Errorf("Set(%s=%s) not applied", tt.key, tt.value)
		}
	}
	if cfg.Physics.AirDensity != 0.1 {
		t.Error("Set clobbered sibling fields")
	}

	for _, bad := range []string{"physics.gravity", "spawn..count", "dt"} {
		value := "1"
		if bad == "dt" {
			value = "fast"
		}
		if err := cfg.Set(bad, value); err == nil {
			t.Errorf("Set(%s=%s) should fail", bad, value)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, dynamo.ErrParameterBounds},
		{"negative duration", func(c *Config) { c.Duration = -1 }, dynamo.ErrParameterBounds},
		{"bad physics", func(c *Config) { c.Physics.Epsilon = 0 }, dynamo.ErrParameterBounds},
		{"bad spawn", func(c *Config) { c.Spawn.Count = 0 }, dynamo.ErrParameterBounds},
		{"bad body", func(c *Config) { c.Bodies = []BodyConfig{{X: 1}} }, dynamo.ErrParameterBounds},
		{"unknown arena", func(c *Config) { c.Arena.Kind = "maze" }, dynamo.ErrUnknownComponent},
		{"flat arena", func(c *Config) { c.Arena.Height = 0 }, dynamo.ErrInvalidField},
		{"csv without dir", func(c *Config) { c.Arena.Kind = ArenaCSV }, dynamo.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInitialState(t *testing.T) {
	cfg := GetPreset("pair")
	x, props, err := cfg.InitialState(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if len(x) != 12 || len(props) != 2 || x[dynamo.StateStride+dynamo.X] != 10.75 {
		t.Errorf("state %v props %v", x, props)
	}

	cfg = DefaultConfig()
	x, props, err = cfg.InitialState(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != cfg.BodyCount() || len(x) != cfg.BodyCount()*dynamo.StateStride {
		t.Errorf("spawned %d bodies, want %d", len(props), cfg.BodyCount())
	}
}

func TestBuildCSVField(t *testing.T) {
	dir := t.TempDir()
	src, err := wallfield.Box(wallfield.Bounds{XMax: 10, YMax: 10}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := wallfield.SaveCSV(dir, src); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Arena = ArenaConfig{Kind: ArenaCSV, FieldDir: dir}
	field, err := cfg.BuildField()
	if err != nil {
		t.Fatal(err)
	}
	if field.Bounds() != src.Bounds() {
		t.Errorf("bounds %+v, want %+v", field.Bounds(), src.Bounds())
	}
}

func TestCloneIsDeep(t *testing.T) {
	src := GetPreset("race")
	src.Bodies = []BodyConfig{{X: 1, Y: 2}}

	c := src.Clone()
	if c.Controller != src.Controller || c.Control != src.Control || c.Spawn != src.Spawn {
		t.Fatalf("clone differs: %+v", c)
	}
	if len(c.Arena.Obstacles) != 1 || c.Arena.Obstacles[0] != src.Arena.Obstacles[0] {
		t.Fatalf("obstacles = %+v", c.Arena.Obstacles)
	}

	c.Arena.Obstacles[0].Radius = 99
	c.Bodies[0].X = 99
	if src.Arena.Obstacles[0].Radius == 99 || src.Bodies[0].X == 99 {
		t.Error("clone shares slices with the source")
	}
}
