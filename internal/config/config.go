package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/physics"
	"github.com/san-kum/arena/internal/sim"
	"github.com/san-kum/arena/internal/wallfield"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.02
	DefaultDuration    = 20.0
	DefaultRecordEvery = 5
	DefaultArenaSize   = 25.0
	DefaultResolution  = 2.0
	DefaultThrust      = 100.0
	DefaultTorque      = 3.0
	DefaultKp          = 4.0
	DefaultKd          = 1.0
)

// Arena kinds.
const (
	ArenaBox  = "box"
	ArenaOpen = "open"
	ArenaCSV  = "csv"
)

type Config struct {
	Integrator    string          `yaml:"integrator"`
	Controller    string          `yaml:"controller"`
	Dt            float64         `yaml:"dt"`
	Duration      float64         `yaml:"duration"`
	Seed          int64           `yaml:"seed"`
	RecordEvery   int             `yaml:"record_every"`
	ValidateState bool            `yaml:"validate_state"`
	Physics       physics.Params  `yaml:"physics"`
	Spawn         sim.SpawnConfig `yaml:"spawn"`
	Bodies        []BodyConfig    `yaml:"bodies,omitempty"`
	Arena         ArenaConfig     `yaml:"arena"`
	Control       ControlConfig   `yaml:"control"`
}

// BodyConfig places one body explicitly. When any are given the spawn block
// is ignored.
type BodyConfig struct {
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	Theta         float64 `yaml:"theta"`
	VX            float64 `yaml:"vx"`
	VY            float64 `yaml:"vy"`
	Omega         float64 `yaml:"omega"`
	physics.Props `yaml:",inline"`
}

type ArenaConfig struct {
	Kind       string           `yaml:"kind"`
	Width      float64          `yaml:"width"`
	Height     float64          `yaml:"height"`
	Resolution float64          `yaml:"resolution"`
	Obstacles  []ObstacleConfig `yaml:"obstacles,omitempty"`
	FieldDir   string           `yaml:"field_dir,omitempty"`
	MapScale   float64          `yaml:"map_scale,omitempty"`
}

type ObstacleConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

type ControlConfig struct {
	Thrust    float64 `yaml:"thrust"`
	Torque    float64 `yaml:"torque"`
	MaxTorque float64 `yaml:"max_torque"`
	TargetX   float64 `yaml:"target_x"`
	TargetY   float64 `yaml:"target_y"`
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	Hold      float64 `yaml:"hold"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator:    "rk4",
		Controller:    "constant",
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		Seed:          1,
		RecordEvery:   DefaultRecordEvery,
		ValidateState: true,
		Physics:       physics.DefaultParams(),
		Spawn:         sim.DefaultSpawnConfig(),
		Arena: ArenaConfig{
			Kind:       ArenaBox,
			Width:      DefaultArenaSize,
			Height:     DefaultArenaSize,
			Resolution: DefaultResolution,
			MapScale:   1,
		},
		Control: ControlConfig{
			Thrust:  DefaultThrust,
			Torque:  DefaultTorque,
			TargetX: DefaultArenaSize / 2,
			TargetY: DefaultArenaSize / 2,
			Kp:      DefaultKp,
			Kd:      DefaultKd,
			Hold:    0.5,
		},
	}
}

// Load reads a YAML file over DefaultConfig. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Set overrides a single value addressed by its dotted YAML path, for
// example "physics.stiffness" or "spawn.count". The value is parsed as YAML.
func (c *Config) Set(path, value string) error {
	parts := strings.Split(path, ".")
	node := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == "" {
			return fmt.Errorf("bad key %q", path)
		}
		node = &yaml.Node{
			Kind:    yaml.MappingNode,
			Content: []*yaml.Node{{Kind: yaml.ScalarNode, Value: parts[i]}, node},
		}
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	if err := decodeStrict(data, c); err != nil {
		return fmt.Errorf("set %s=%s: %w", path, value, err)
	}
	return nil
}

// Validate reports the first configuration error. Component names are
// checked where components are built.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %v: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %v: %w", c.Duration, dynamo.ErrParameterBounds)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("record_every must not be negative: %w", dynamo.ErrParameterBounds)
	}
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if len(c.Bodies) > 0 {
		if err := physics.ValidateProps(c.props()); err != nil {
			return fmt.Errorf("bodies: %w", err)
		}
	} else if err := c.Spawn.Validate(); err != nil {
		return err
	}

	a := c.Arena
	switch a.Kind {
	case ArenaBox, ArenaOpen:
		if !(a.Width > 0) || !(a.Height > 0) {
			return fmt.Errorf("arena %vx%v: %w", a.Width, a.Height, dynamo.ErrInvalidField)
		}
		if a.Kind == ArenaBox && !(a.Resolution > 0) {
			return fmt.Errorf("arena resolution %v: %w", a.Resolution, dynamo.ErrInvalidField)
		}
	case ArenaCSV:
		if a.FieldDir == "" {
			return fmt.Errorf("csv arena needs field_dir: %w", dynamo.ErrInvalidField)
		}
	default:
		return fmt.Errorf("arena kind %q: %w", a.Kind, dynamo.ErrUnknownComponent)
	}
	return nil
}

// Bounds is the rectangle a box or open arena covers.
func (a ArenaConfig) Bounds() wallfield.Bounds {
	return wallfield.Bounds{XMax: a.Width, YMax: a.Height}
}

// BuildField constructs the wall field described by the arena block.
func (c *Config) BuildField() (*wallfield.Field, error) {
	a := c.Arena
	switch a.Kind {
	case ArenaOpen:
		return wallfield.Open(a.Bounds()), nil
	case ArenaCSV:
		scale := a.MapScale
		if scale == 0 {
			scale = 1
		}
		return wallfield.LoadCSV(a.FieldDir, scale)
	case ArenaBox:
		obstacles := make([]wallfield.Circle, len(a.Obstacles))
		for i, o := range a.Obstacles {
			obstacles[i] = wallfield.Circle{Center: mgl64.Vec2{o.X, o.Y}, Radius: o.Radius}
		}
		return wallfield.Box(a.Bounds(), a.Resolution, obstacles...)
	}
	return nil, fmt.Errorf("arena kind %q: %w", a.Kind, dynamo.ErrUnknownComponent)
}

// InitialState returns the explicit bodies if any, otherwise a spawn drawn
// from rng.
func (c *Config) InitialState(rng *rand.Rand) (dynamo.State, []physics.Props, error) {
	if len(c.Bodies) == 0 {
		return sim.Spawn(c.Spawn, rng)
	}
	x := dynamo.NewState(len(c.Bodies))
	for i, b := range c.Bodies {
		copy(x.Body(i), []float64{b.X, b.Y, b.Theta, b.VX, b.VY, b.Omega})
	}
	return x, c.props(), nil
}

func (c *Config) props() []physics.Props {
	props := make([]physics.Props, len(c.Bodies))
	for i, b := range c.Bodies {
		props[i] = b.Props
	}
	return props
}

// BodyCount is the number of bodies the config will produce.
func (c *Config) BodyCount() int {
	if len(c.Bodies) > 0 {
		return len(c.Bodies)
	}
	return c.Spawn.Count
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		Seed:          c.Seed,
		RecordEvery:   c.RecordEvery,
		ValidateState: c.ValidateState,
	}
}

// Clone returns a deep copy; slices are not shared with c.
func (c *Config) Clone() *Config {
	d := &Config{}
	if err := copier.CopyWithOption(d, c, copier.Option{DeepCopy: true}); err != nil {
		// both sides are *Config
		panic(err)
	}
	return d
}
