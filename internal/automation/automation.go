// Package automation runs scripted batches of loop simulations: YAML
// scenarios, single-parameter sweeps and Monte Carlo disturbance trials.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/logging"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/sim"
	"github.com/san-kum/loopsim/internal/storage"
)

// Scenario defines a scripted simulation sequence.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file and overlays Set.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	File   string    `yaml:"file"`
	Set    yaml.Node `yaml:"set"`
	Save   bool      `yaml:"save"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the step's starting config and applies its overlay.
func (s ScenarioStep) Config() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "" && s.File != "":
		return nil, fmt.Errorf("step %q sets both preset and file", s.Name)
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
		}
	case s.File != "":
		var err error
		if cfg, err = config.Load(s.File); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Set.Kind != 0 {
		data, err := yaml.Marshal(&s.Set)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(data); err != nil {
			return nil, fmt.Errorf("step %q overlay: %w", s.Name, err)
		}
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure.
// Steps marked Save are written to store when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store) ([]*experiment.Outcome, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("scenario", scenario.Name)
	outcomes := make([]*experiment.Outcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Config()
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(name, cfg)
		if err := exp.Setup(); err != nil {
			return outcomes, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		out, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("step %d run: %w", i+1, err)
		}
		outcomes = append(outcomes, out)

		if step.Save && store != nil {
			id, err := store.Save(name, out.Config, out.Result, out.Report)
			if err != nil {
				return outcomes, fmt.Errorf("step %d save: %w", i+1, err)
			}
			log.V(logging.DEBUG).Info("saved step", "name", name, "id", id)
		}
	}
	return outcomes, nil
}

// SweepResult is one point of a parameter sweep.
type SweepResult struct {
	Value  float64
	Report metrics.Report
}

// RunSweep varies one numeric config key across n evenly spaced values and
// simulates them concurrently.
func RunSweep(ctx context.Context, base *config.Config, param string, lo, hi float64, n, workers int) ([]SweepResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("sweep needs at least one point, got %d", n)
	}
	values := []float64{lo}
	if n > 1 {
		values = floats.Span(make([]float64, n), lo, hi)
	}

	cfgs := make([]*config.Config, n)
	simCfgs := make([]sim.Config, n)
	for i, v := range values {
		cfg := base.Clone()
		if err := cfg.Set(param, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", param, v, err)
		}
		cfgs[i] = cfg
		simCfgs[i] = cfg.ToSim()
	}

	results, err := sim.NewEnsemble(workers).Run(ctx, simCfgs)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, n)
	for i, res := range results {
		out[i] = SweepResult{Value: values[i], Report: metrics.Analyze(res, cfgs[i].Analysis())}
	}
	logr.FromContextOrDiscard(ctx).V(logging.DEBUG).Info("sweep finished", "param", param, "points", n)
	return out, nil
}

// Trial is one Monte Carlo run.
type Trial struct {
	Seed   int64
	Report metrics.Report
}

// Summary aggregates one metric over the trials where it applies.
type Summary struct {
	Metric string
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	N      int
}

type MonteCarloResult struct {
	Trials    []Trial
	Summaries []Summary
}

// RunMonteCarlo repeats base with a fresh disturbance seed per trial. The
// seeds are drawn from seed, so equal inputs give equal results.
func RunMonteCarlo(ctx context.Context, base *config.Config, trials int, seed int64, workers int) (*MonteCarloResult, error) {
	if trials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", trials)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	seeds := make([]int64, trials)
	simCfgs := make([]sim.Config, trials)
	for i := range simCfgs {
		seeds[i] = rng.Int63()
		cfg := base.Clone()
		cfg.Seed = seeds[i]
		simCfgs[i] = cfg.ToSim()
	}

	results, err := sim.NewEnsemble(workers).Run(ctx, simCfgs)
	if err != nil {
		return nil, err
	}

	mc := &MonteCarloResult{Trials: make([]Trial, trials)}
	for i, res := range results {
		mc.Trials[i] = Trial{Seed: seeds[i], Report: metrics.Analyze(res, base.Analysis())}
	}
	mc.Summaries = summarize(mc.Trials)

	logr.FromContextOrDiscard(ctx).V(logging.DEBUG).Info("monte carlo finished", "trials", trials)
	return mc, nil
}

func summarize(trials []Trial) []Summary {
	names := append([]string(nil), metrics.Names...)
	sort.Strings(names)

	summaries := make([]Summary, 0, len(names))
	for _, name := range names {
		var xs []float64
		for _, t := range trials {
			v, err := t.Report.Lookup(name)
			if err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
				xs = append(xs, v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		s := Summary{Metric: name, N: len(xs), Min: floats.Min(xs), Max: floats.Max(xs)}
		if len(xs) > 1 {
			s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
		} else {
			s.Mean = xs[0]
		}
		summaries = append(summaries, s)
	}
	return summaries
}
