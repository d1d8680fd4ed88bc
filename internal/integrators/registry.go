package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/arena/internal/dynamo"
)

var registry = map[string]func() dynamo.InPlaceIntegrator{
	"rk4":   func() dynamo.InPlaceIntegrator { return NewRK4() },
	"euler": func() dynamo.InPlaceIntegrator { return NewEuler() },
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.InPlaceIntegrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("integrator %q: %w", name, dynamo.ErrUnknownComponent)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
