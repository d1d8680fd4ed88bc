package metrics

import (
	"math"

	"github.com/san-kum/arena/internal/dynamo"
)

// ControlEffort is the mean per-body |thrust| + |torque| over all steps.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	n := len(u) / dynamo.ControlStride
	if n == 0 {
		return
	}
	total := 0.0
	for _, val := range u {
		total += math.Abs(val)
	}
	c.sum += total / float64(n)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
