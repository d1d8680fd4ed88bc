package integrators

import "github.com/san-kum/arena/internal/dynamo"

// Euler is the explicit first-order stepper. It needs far smaller steps than
// RK4 before penalty contacts stay stable and exists mainly for comparison.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	result := x.Clone()
	e.StepInPlace(dyn, result, u, t, dt)
	return result
}

func (e *Euler) StepInPlace(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) {
	dx := dyn.Derive(x, u, t)
	for i := range x {
		x[i] += dt * dx[i]
	}
}
