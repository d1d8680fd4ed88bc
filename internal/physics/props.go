package physics

import (
	"fmt"

	"github.com/san-kum/arena/internal/dynamo"
)

// Props are the static properties of one body. DragArea is the drag
// coefficient already multiplied by the frontal area.
type Props struct {
	Mass     float64 `yaml:"mass" json:"mass"`
	Inertia  float64 `yaml:"inertia" json:"inertia"`
	Radius   float64 `yaml:"radius" json:"radius"`
	DragArea float64 `yaml:"drag_area" json:"drag_area"`
}

// ValidateProps checks the invariants the force model divides by. It runs once
// when a simulation is built, never per step.
func ValidateProps(props []Props) error {
	for i, p := range props {
		switch {
		case !(p.Mass > 0):
			return fmt.Errorf("body %d: mass %v: %w", i, p.Mass, dynamo.ErrParameterBounds)
		case !(p.Inertia > 0):
			return fmt.Errorf("body %d: inertia %v: %w", i, p.Inertia, dynamo.ErrParameterBounds)
		case !(p.Radius > 0):
			return fmt.Errorf("body %d: radius %v: %w", i, p.Radius, dynamo.ErrParameterBounds)
		case !(p.DragArea >= 0):
			return fmt.Errorf("body %d: drag area %v: %w", i, p.DragArea, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// MaxRadius is the hashing radius that keeps the broad phase free of false
// negatives when radii differ.
func MaxRadius(props []Props) float64 {
	r := 0.0
	for _, p := range props {
		if p.Radius > r {
			r = p.Radius
		}
	}
	return r
}

// KineticEnergy sums translational and rotational kinetic energy.
func KineticEnergy(x dynamo.State, props []Props) float64 {
	e := 0.0
	for i, p := range props {
		s := x.Body(i)
		e += 0.5 * p.Mass * (s[dynamo.VX]*s[dynamo.VX] + s[dynamo.VY]*s[dynamo.VY])
		e += 0.5 * p.Inertia * s[dynamo.Omega] * s[dynamo.Omega]
	}
	return e
}

// Momentum returns the total linear momentum.
func Momentum(x dynamo.State, props []Props) (px, py float64) {
	for i, p := range props {
		s := x.Body(i)
		px += p.Mass * s[dynamo.VX]
		py += p.Mass * s[dynamo.VY]
	}
	return px, py
}
