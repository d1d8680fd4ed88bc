package experiment

import (
	"context"
	"io"
	"log/slog"
	"math/rand"

	"github.com/san-kum/arena/internal/config"
	"github.com/san-kum/arena/internal/sim"
	"github.com/san-kum/arena/internal/wallfield"
)

// Experiment turns a validated config into runnable simulators. The wall
// field is built once and shared, read-only, by every simulator it makes.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	field    *wallfield.Field
	logger   *slog.Logger
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Fail on unknown names before any field work.
	if _, err := e.registry.GetIntegrator(cfg.Integrator); err != nil {
		return nil, err
	}
	if _, err := e.registry.lookup(cfg.Controller); err != nil {
		return nil, err
	}

	field, err := cfg.BuildField()
	if err != nil {
		return nil, err
	}
	e.field = field
	e.logger.Debug("field ready", "width", field.Width(), "height", field.Height(), "bounds", field.Bounds())
	return e, nil
}

func (e *Experiment) Config() *config.Config  { return e.cfg }
func (e *Experiment) Field() *wallfield.Field { return e.field }

// Build creates a fresh arena and simulator for seed. The same seed always
// yields the same initial state and controller behaviour.
func (e *Experiment) Build(seed int64) (*sim.Simulator, error) {
	rng := rand.New(rand.NewSource(seed))

	x, props, err := e.cfg.InitialState(rng)
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}
	arena, err := sim.NewArena(x, props, e.field, e.cfg.Physics, integ)
	if err != nil {
		return nil, err
	}
	ctrl, err := e.registry.GetController(e.cfg.Controller, e.cfg.Control, len(props), rng)
	if err != nil {
		return nil, err
	}

	s := sim.New(arena, ctrl, sim.WithLogger(e.logger.With("seed", seed)))
	for _, m := range e.registry.DefaultMetrics(arena.Model()) {
		s.AddMetric(m)
	}
	return s, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	s, err := e.Build(e.cfg.Seed)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, e.cfg.SimConfig())
}

// Ensemble runs the experiment over runs consecutive seeds starting at the
// configured one.
func (e *Experiment) Ensemble(runs int) *sim.Ensemble {
	return sim.NewEnsemble(e.Build, runs, e.cfg.Seed)
}
