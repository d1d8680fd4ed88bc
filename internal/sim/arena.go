package sim

import (
	"fmt"

	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/integrators"
	"github.com/san-kum/arena/internal/physics"
	"github.com/san-kum/arena/internal/wallfield"
)

// Arena owns the state of every body and advances it in place. It is not safe
// for concurrent use; a host goroutine owns it for the whole run.
type Arena struct {
	model *physics.Model
	integ dynamo.InPlaceIntegrator
	state dynamo.State
	time  float64
	steps int
}

// NewArena takes ownership of state. A nil integrator selects RK4.
func NewArena(state dynamo.State, props []physics.Props, field *wallfield.Field, params physics.Params, integ dynamo.InPlaceIntegrator) (*Arena, error) {
	if len(state) != len(props)*dynamo.StateStride {
		return nil, fmt.Errorf("state has %d entries for %d bodies: %w", len(state), len(props), dynamo.ErrDimensionMismatch)
	}
	model, err := physics.NewModel(props, field, params)
	if err != nil {
		return nil, err
	}
	if integ == nil {
		integ = integrators.NewRK4()
	}
	return &Arena{model: model, integ: integ, state: state}, nil
}

// Step advances every body by dt under control u. A rejected step returns an
// error and leaves the state untouched; numerical blow-up is not detected here.
func (a *Arena) Step(u dynamo.Control, dt float64) error {
	if len(u) != a.model.ControlDim() {
		return fmt.Errorf("control has %d entries for %d bodies: %w", len(u), a.model.Bodies(), dynamo.ErrDimensionMismatch)
	}
	if !(dt > 0) {
		return fmt.Errorf("dt %v: %w", dt, dynamo.ErrParameterBounds)
	}
	a.integ.StepInPlace(a.model, a.state, u, a.time, dt)
	a.time += dt
	a.steps++
	return nil
}

// State returns the live state vector. Callers must not modify it.
func (a *Arena) State() dynamo.State { return a.state }

// Snapshot returns a copy of the state that later steps do not touch.
func (a *Arena) Snapshot() dynamo.State { return a.state.Clone() }

func (a *Arena) Time() float64         { return a.time }
func (a *Arena) Steps() int            { return a.steps }
func (a *Arena) Bodies() int           { return a.model.Bodies() }
func (a *Arena) Model() *physics.Model { return a.model }
