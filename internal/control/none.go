package control

import "github.com/san-kum/arena/internal/dynamo"

type None struct {
	bodies int
}

func NewNone(bodies int) *None {
	return &None{
		bodies: bodies,
	}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.NewControl(n.bodies)
}

// Constant applies fixed thrust and torque to every body.
type Constant struct {
	Thrust float64
	Torque float64
	u      dynamo.Control
}

func NewConstant(bodies int, thrust, torque float64) *Constant {
	c := &Constant{Thrust: thrust, Torque: torque, u: dynamo.NewControl(bodies)}
	for i := 0; i < bodies; i++ {
		c.u.Set(i, thrust, torque)
	}
	return c
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return c.u
}
