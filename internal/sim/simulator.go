package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/san-kum/arena/internal/dynamo"
)

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
	// RecordEvery keeps one state in every RecordEvery steps. The initial
	// and final states are always kept. Zero means every step.
	RecordEvery   int
	ValidateState bool
}

type Result struct {
	States     []dynamo.State
	Controls   []dynamo.Control
	Times      []float64
	Metrics    *orderedmap.OrderedMap[string, float64]
	StepsTaken int
	Errors     []error
	// EnergyChange is the relative change in kinetic energy over the run.
	EnergyChange  float64
	FinalChecksum uint64
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// Simulator drives an Arena with a controller, feeding metrics and observers
// before every step.
type Simulator struct {
	arena      *Arena
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

func New(arena *Arena, controller dynamo.Controller, opts ...Option) *Simulator {
	s := &Simulator{
		arena:      arena,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Arena() *Arena { return s.arena }

// Advance computes one control vector, shows it to metrics and observers and
// steps the arena by dt. It returns the control that was applied.
func (s *Simulator) Advance(dt float64) (dynamo.Control, error) {
	x := s.arena.State()
	t := s.arena.Time()

	var u dynamo.Control
	if s.controller != nil {
		u = s.controller.Compute(x, t)
	} else {
		u = dynamo.NewControl(s.arena.Bodies())
	}

	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}

	if err := s.arena.Step(u, dt); err != nil {
		return u, &dynamo.SimulationError{
			Step:    s.arena.Steps(),
			Time:    t,
			State:   s.arena.Snapshot(),
			Wrapped: err,
		}
	}
	return u, nil
}

// Run steps the arena for cfg.Duration. Cancellation is checked between
// steps; on cancel the partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := cfg.RecordEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		States:   make([]dynamo.State, 0, steps/every+2),
		Controls: make([]dynamo.Control, 0, steps/every+1),
		Times:    make([]float64, 0, steps/every+2),
		Metrics:  orderedmap.NewOrderedMap[string, float64](),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.States = append(result.States, s.arena.Snapshot())
	result.Times = append(result.Times, s.arena.Time())

	initialEnergy := s.arena.Model().Energy(s.arena.State())
	s.logger.Debug("run started", "bodies", s.arena.Bodies(), "steps", steps, "dt", cfg.Dt)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, initialEnergy)
			return result, ctx.Err()
		default:
		}

		u, err := s.Advance(cfg.Dt)
		if err != nil {
			s.finish(result, initialEnergy)
			return result, err
		}
		result.StepsTaken++

		x := s.arena.State()
		if cfg.ValidateState && !x.IsValid() {
			serr := dynamo.SimError{Time: s.arena.Time(), Step: i, Message: "invalid state (NaN/Inf)"}
			s.logger.Warn("stopping run", "err", serr)
			result.Errors = append(result.Errors, serr)
			result.States = append(result.States, s.arena.Snapshot())
			result.Controls = append(result.Controls, u.Clone())
			result.Times = append(result.Times, s.arena.Time())
			break
		}

		if (i+1)%every == 0 || i == steps-1 {
			result.States = append(result.States, s.arena.Snapshot())
			result.Controls = append(result.Controls, u.Clone())
			result.Times = append(result.Times, s.arena.Time())
		}
	}

	s.finish(result, initialEnergy)
	s.logger.Debug("run finished", "steps", result.StepsTaken, "checksum", result.FinalChecksum)
	return result, nil
}

func (s *Simulator) finish(result *Result, initialEnergy float64) {
	x := s.arena.State()
	if initialEnergy != 0 {
		result.EnergyChange = (s.arena.Model().Energy(x) - initialEnergy) / initialEnergy
	}
	for _, m := range s.metrics {
		result.Metrics.Set(m.Name(), m.Value())
	}
	result.FinalChecksum = x.Checksum()
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrParameterBounds)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("record_every must not be negative, got %d: %w", cfg.RecordEvery, dynamo.ErrParameterBounds)
	}
	return nil
}
