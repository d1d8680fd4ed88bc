package experiment

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/arena/internal/config"
	"github.com/san-kum/arena/internal/control"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/integrators"
	"github.com/san-kum/arena/internal/metrics"
	"github.com/san-kum/arena/internal/physics"
)

// ControllerFactory builds a controller for a fleet of the given size. rng is
// seeded per run.
type ControllerFactory func(c config.ControlConfig, bodies int, rng *rand.Rand) dynamo.Controller

type Registry struct {
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		controllers: make(map[string]ControllerFactory),
	}

	r.controllers["none"] = func(c config.ControlConfig, bodies int, rng *rand.Rand) dynamo.Controller {
		return control.NewNone(bodies)
	}
	r.controllers["constant"] = func(c config.ControlConfig, bodies int, rng *rand.Rand) dynamo.Controller {
		return control.NewConstant(bodies, c.Thrust, c.Torque)
	}
	r.controllers["random"] = func(c config.ControlConfig, bodies int, rng *rand.Rand) dynamo.Controller {
		return control.NewRandom(rng, c.Thrust, c.Torque, c.Hold)
	}
	r.controllers["seek"] = func(c config.ControlConfig, bodies int, rng *rand.Rand) dynamo.Controller {
		return control.NewSeek(mgl64.Vec2{c.TargetX, c.TargetY}, c.Thrust, c.MaxTorque, c.Kp, c.Ki, c.Kd)
	}

	return r
}

// Register adds or replaces a controller.
func (r *Registry) Register(name string, fn ControllerFactory) {
	r.controllers[name] = fn
}

func (r *Registry) GetIntegrator(name string) (dynamo.InPlaceIntegrator, error) {
	return integrators.New(name)
}

func (r *Registry) GetController(name string, c config.ControlConfig, bodies int, rng *rand.Rand) (dynamo.Controller, error) {
	fn, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return fn(c, bodies, rng), nil
}

func (r *Registry) lookup(name string) (ControllerFactory, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("controller %q: %w", name, dynamo.ErrUnknownComponent)
	}
	return fn, nil
}

func (r *Registry) ListControllers() []string {
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

func (r *Registry) DefaultMetrics(model *physics.Model) []dynamo.Metric {
	return metrics.Default(model)
}
