// Package experiment runs one configured loop end to end: simulate, then
// analyze.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/integrators"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/sim"
)

type Experiment struct {
	name      string
	cfg       *config.Config
	simulator *sim.Simulator
}

// Outcome is a finished experiment.
type Outcome struct {
	Name    string
	Config  *config.Config
	Result  *sim.Result
	Report  metrics.Report
	Elapsed time.Duration
}

// New keeps its own copy of cfg.
func New(name string, cfg *config.Config) *Experiment {
	return &Experiment{name: name, cfg: cfg.Clone()}
}

func (e *Experiment) Name() string { return e.name }

func (e *Experiment) Config() *config.Config { return e.cfg.Clone() }

// Setup validates the configuration and builds the simulator.
func (e *Experiment) Setup(observers ...sim.Observer) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	integ, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return err
	}
	e.simulator = sim.New(integ)
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment %s not set up", e.name)
	}

	start := time.Now()
	res, err := e.simulator.Run(ctx, e.cfg.ToSim())
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", e.name, err)
	}
	out := &Outcome{
		Name:    e.name,
		Config:  e.cfg.Clone(),
		Result:  res,
		Report:  metrics.Analyze(res, e.cfg.Analysis()),
		Elapsed: time.Since(start),
	}

	logr.FromContextOrDiscard(ctx).Info("experiment finished", "name", e.name,
		"samples", res.Len(), "settling", out.Report.SettlingTime.String(), "elapsed", out.Elapsed)
	return out, nil
}

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
