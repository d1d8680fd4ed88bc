package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/physics"
	"github.com/san-kum/arena/internal/wallfield"
)

// Contacts is the mean number of overlapping body pairs per step.
type Contacts struct {
	name    string
	model   *physics.Model
	total   int
	samples int
}

func NewContacts(model *physics.Model) *Contacts {
	return &Contacts{name: "contacts", model: model}
}

func (c *Contacts) Name() string { return c.name }

func (c *Contacts) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.total += c.model.Contacts(x)
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.total) / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.total = 0
	c.samples = 0
}

// Penetration is the deepest wall overlap seen over the run.
type Penetration struct {
	name  string
	model *physics.Model
	max   float64
}

func NewPenetration(model *physics.Model) *Penetration {
	return &Penetration{name: "max_penetration", model: model}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(x dynamo.State, u dynamo.Control, t float64) {
	p.max = math.Max(p.max, p.model.MaxPenetration(x))
}

func (p *Penetration) Value() float64 { return p.max }
func (p *Penetration) Reset()         { p.max = 0 }

// Containment is the fraction of steps on which every body centre lay inside
// the field bounds.
type Containment struct {
	name       string
	bounds     wallfield.Bounds
	violations int
	samples    int
}

func NewContainment(bounds wallfield.Bounds) *Containment {
	return &Containment{
		name:   "containment",
		bounds: bounds,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.samples++
	for i := 0; i < x.Bodies(); i++ {
		b := x.Body(i)
		if !c.bounds.Contains(mgl64.Vec2{b[dynamo.X], b[dynamo.Y]}) {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

// Default returns the metrics reported for every arena run, in display order.
func Default(model *physics.Model) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(model),
		NewEnergyDrift(model),
		NewContacts(model),
		NewPenetration(model),
		NewContainment(model.Field().Bounds()),
		NewControlEffort(),
	}
}
