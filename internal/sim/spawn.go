package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/physics"
)

// SpawnConfig describes a random fleet dropped into a square region.
type SpawnConfig struct {
	Count        int     `yaml:"count" json:"count"`
	CenterX      float64 `yaml:"center_x" json:"center_x"`
	CenterY      float64 `yaml:"center_y" json:"center_y"`
	HalfSize     float64 `yaml:"half_size" json:"half_size"`
	MassMin      float64 `yaml:"mass_min" json:"mass_min"`
	MassMax      float64 `yaml:"mass_max" json:"mass_max"`
	InertiaRatio float64 `yaml:"inertia_ratio" json:"inertia_ratio"`
	Radius       float64 `yaml:"radius" json:"radius"`
	DragArea     float64 `yaml:"drag_area" json:"drag_area"`
	MaxSpeed     float64 `yaml:"max_speed" json:"max_speed"`
	MaxSpin      float64 `yaml:"max_spin" json:"max_spin"`
}

func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		Count:        30,
		CenterX:      12.5,
		CenterY:      12.5,
		HalfSize:     3,
		MassMin:      1,
		MassMax:      3,
		InertiaRatio: 0.25,
		Radius:       1,
		DragArea:     1,
		MaxSpeed:     1,
		MaxSpin:      1,
	}
}

func (c SpawnConfig) Validate() error {
	switch {
	case c.Count <= 0:
		return fmt.Errorf("spawn count %d: %w", c.Count, dynamo.ErrParameterBounds)
	case !(c.MassMin > 0) || c.MassMax < c.MassMin:
		return fmt.Errorf("spawn mass range [%v, %v): %w", c.MassMin, c.MassMax, dynamo.ErrParameterBounds)
	case !(c.InertiaRatio > 0):
		return fmt.Errorf("spawn inertia ratio %v: %w", c.InertiaRatio, dynamo.ErrParameterBounds)
	case !(c.Radius > 0):
		return fmt.Errorf("spawn radius %v: %w", c.Radius, dynamo.ErrParameterBounds)
	case c.HalfSize < 0 || c.DragArea < 0 || c.MaxSpeed < 0 || c.MaxSpin < 0:
		return fmt.Errorf("spawn extents must be non-negative: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

// Spawn draws an initial state and property set from rng. Positions are
// uniform over the square, headings uniform over a full turn, velocity
// components and spin uniform in [-max, max]. Mass is uniform in
// [MassMin, MassMax) and inertia is InertiaRatio times mass.
func Spawn(cfg SpawnConfig, rng *rand.Rand) (dynamo.State, []physics.Props, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	x := dynamo.NewState(cfg.Count)
	props := make([]physics.Props, cfg.Count)
	sym := func(m float64) float64 { return (2*rng.Float64() - 1) * m }

	for i := range props {
		m := cfg.MassMin + (cfg.MassMax-cfg.MassMin)*rng.Float64()
		props[i] = physics.Props{
			Mass:     m,
			Inertia:  cfg.InertiaRatio * m,
			Radius:   cfg.Radius,
			DragArea: cfg.DragArea,
		}

		s := x.Body(i)
		s[dynamo.X] = cfg.CenterX + sym(cfg.HalfSize)
		s[dynamo.Y] = cfg.CenterY + sym(cfg.HalfSize)
		s[dynamo.Theta] = rng.Float64() * 2 * math.Pi
		s[dynamo.VX] = sym(cfg.MaxSpeed)
		s[dynamo.VY] = sym(cfg.MaxSpeed)
		s[dynamo.Omega] = sym(cfg.MaxSpin)
	}
	return x, props, nil
}
