package control

import (
	"math/rand"

	"github.com/san-kum/arena/internal/dynamo"
)

// Weighted key presses: mostly thrusting, mostly turning clockwise.
var (
	thrustChoices = []float64{1, 1, 1, 1, 0}
	torqueChoices = []float64{-1, -1, -1, 0, 1}
)

// Random presses thrust and turn keys at random for every body, holding each
// choice for Hold seconds.
type Random struct {
	Thrust float64
	Torque float64
	Hold   float64

	rng  *rand.Rand
	next float64
	u    dynamo.Control
}

func NewRandom(rng *rand.Rand, thrust, torque, hold float64) *Random {
	return &Random{Thrust: thrust, Torque: torque, Hold: hold, rng: rng}
}

func (r *Random) Compute(x dynamo.State, t float64) dynamo.Control {
	n := x.Bodies()
	if len(r.u) != n*dynamo.ControlStride {
		r.u = dynamo.NewControl(n)
		r.next = t
	}
	if t < r.next {
		return r.u
	}

	for i := 0; i < n; i++ {
		r.u.Set(i,
			r.Thrust*thrustChoices[r.rng.Intn(len(thrustChoices))],
			r.Torque*torqueChoices[r.rng.Intn(len(torqueChoices))])
	}
	r.next = t + r.Hold
	return r.u
}
