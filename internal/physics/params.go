package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/arena/internal/dynamo"
)

// Params are the global contact and drag constants. The defaults were tuned
// by hand for craft of radius ~1 and mass 1-3 stepped at dt=0.02.
type Params struct {
	AirDensity    float64 `yaml:"air_density" json:"air_density"`
	Stiffness     float64 `yaml:"stiffness" json:"stiffness"`
	SpinDragRatio float64 `yaml:"spin_drag_ratio" json:"spin_drag_ratio"`
	Epsilon       float64 `yaml:"epsilon" json:"epsilon"`
	Friction      float64 `yaml:"friction" json:"friction"`
	WallFriction  float64 `yaml:"wall_friction" json:"wall_friction"`
}

const (
	DefaultAirDensity    = 0.1
	DefaultStiffness     = 4000.0
	DefaultSpinDragRatio = 1.8
	DefaultEpsilon       = 1e-5
	DefaultFriction      = 0.05
	DefaultWallFriction  = 0.01
)

func DefaultParams() Params {
	return Params{
		AirDensity:    DefaultAirDensity,
		Stiffness:     DefaultStiffness,
		SpinDragRatio: DefaultSpinDragRatio,
		Epsilon:       DefaultEpsilon,
		Friction:      DefaultFriction,
		WallFriction:  DefaultWallFriction,
	}
}

func (p Params) Validate() error {
	for name, v := range p.GetParams() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s = %v: %w", name, v, dynamo.ErrParameterBounds)
		}
	}
	if p.Epsilon == 0 {
		return fmt.Errorf("epsilon must be positive: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"air_density":     p.AirDensity,
		"stiffness":       p.Stiffness,
		"spin_drag_ratio": p.SpinDragRatio,
		"epsilon":         p.Epsilon,
		"friction":        p.Friction,
		"wall_friction":   p.WallFriction,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	switch name {
	case "air_density":
		p.AirDensity = value
	case "stiffness":
		p.Stiffness = value
	case "spin_drag_ratio":
		p.SpinDragRatio = value
	case "epsilon":
		p.Epsilon = value
	case "friction":
		p.Friction = value
	case "wall_friction":
		p.WallFriction = value
	default:
		return fmt.Errorf("unknown param: %s (have %v)", name, ParamNames())
	}
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, 6)
	for k := range DefaultParams().GetParams() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
