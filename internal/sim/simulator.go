package sim

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/integrators"
	"github.com/san-kum/loopsim/internal/logging"
	"github.com/san-kum/loopsim/internal/plant"
	"github.com/san-kum/loopsim/internal/signal"
)

// NoiseFactory builds the disturbance source for a run from its seed.
type NoiseFactory func(seed int64) signal.Source

// ControllerFactory builds the feedback law for a run.
type ControllerFactory func(cfg Config) dynamo.Controller

// termReporter is implemented by controllers that expose their P/I/D split,
// such as control.PID.
type termReporter interface {
	Terms() control.Terms
	Saturated() bool
}

// NewPIDController is the default ControllerFactory.
func NewPIDController(cfg Config) dynamo.Controller {
	return control.NewPID(cfg.Gains, cfg.Dt, control.Options{
		AntiWindup: cfg.AntiWindup,
		Filter:     cfg.Filter,
	})
}

// Simulator runs closed-loop simulations. Runs on the same Simulator are
// serialized; every run builds its own plant, controller and noise state.
type Simulator struct {
	mu         sync.Mutex
	integrator dynamo.Integrator
	observers  []Observer
	noise      NoiseFactory
	controller ControllerFactory
}

func New(integrator dynamo.Integrator) *Simulator {
	if integrator == nil {
		integrator = integrators.NewRK4()
	}
	return &Simulator{
		integrator: integrator,
		observers:  make([]Observer, 0),
		controller: NewPIDController,
	}
}

func (s *Simulator) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// SetNoise replaces the default seeded math/rand source.
func (s *Simulator) SetNoise(f NoiseFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noise = f
}

// SetController replaces the PID with another feedback law.
func (s *Simulator) SetController(f ControllerFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller = f
}

// Simulate validates cfg and runs it on a fresh Simulator using the
// integrator named in the config.
func Simulate(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, dynamo.Invalid("integrator", "%v", err)
	}
	return New(integ).Run(ctx, cfg)
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ss, err := plant.New(cfg.Plant)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := logr.FromContextOrDiscard(ctx).WithValues("plant", cfg.Plant.String(), "gains", cfg.Gains.String())
	start := time.Now()

	steps := cfg.Steps()
	log.V(logging.DEBUG).Info("starting run", "steps", steps, "dt", cfg.Dt)

	ctrl := s.controller(cfg)
	ctrl.Reset()
	reporter, _ := ctrl.(termReporter)
	dist := s.disturbance(cfg.Disturbance)

	result := newResult(steps)
	x := make(dynamo.State, ss.StateDim())
	uPrev := 0.0

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			log.V(logging.DEBUG).Info("run canceled", "step", i)
			return nil, dynamo.Canceled(ctx.Err())
		default:
		}

		t := float64(i) * cfg.Dt
		r := cfg.Reference.At(t)
		y := ss.Output(x, uPrev) + dist.Sample()
		e := r - y
		u := ctrl.Compute(e)

		next := s.integrator.Step(ss, x, u, t, cfg.Dt)
		if !next.IsValid() || !dynamo.Finite(u, y) {
			return nil, &dynamo.StepError{Step: i, Time: t, Wrapped: dynamo.ErrUnstable}
		}

		sample := Sample{
			Index:     i,
			Time:      t,
			Reference: r,
			Output:    y,
			Error:     e,
			Control:   u,
		}
		if reporter != nil {
			sample.Terms = reporter.Terms()
			sample.Saturated = reporter.Saturated()
		}
		result.append(sample)
		for _, obs := range s.observers {
			obs.OnStep(sample)
		}

		x = next
		uPrev = u
	}

	log.V(logging.DEBUG).Info("run finished", "samples", result.Len(), "stateNorm", x.Norm(), "elapsed", time.Since(start))
	return result, nil
}

func (s *Simulator) disturbance(d Disturbance) *signal.Uniform {
	if s.noise != nil {
		return signal.NewUniform(d.Amplitude, s.noise(d.Seed))
	}
	return signal.NewSeeded(d.Amplitude, d.Seed)
}
