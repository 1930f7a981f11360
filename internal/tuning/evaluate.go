package tuning

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/sim"
)

// Evaluation is a suggestion replayed on the base configuration.
type Evaluation struct {
	Rule   string         `json:"rule"`
	Gains  control.Gains  `json:"gains"`
	Report metrics.Report `json:"report"`
}

// Evaluate simulates every suggestion of a tuned session concurrently with
// the base configuration's reference and disturbance, sorted by rule name.
func Evaluate(ctx context.Context, s *Session, base sim.Config, opts metrics.Options, workers int) ([]Evaluation, error) {
	if s.Status != Tuned {
		return nil, fmt.Errorf("%w: session is %s", ErrTuningIncomplete, s.Status)
	}

	names := make([]string, 0, len(s.Suggestions))
	for name := range s.Suggestions {
		names = append(names, name)
	}
	sort.Strings(names)

	cfgs := make([]sim.Config, len(names))
	for i, name := range names {
		cfg := base.Clone()
		cfg.Gains = s.Suggestions[name]
		cfgs[i] = cfg
	}

	results, err := sim.NewEnsemble(workers).Run(ctx, cfgs)
	if err != nil {
		return nil, fmt.Errorf("evaluate suggestions: %w", err)
	}

	evals := make([]Evaluation, len(names))
	for i, name := range names {
		evals[i] = Evaluation{
			Rule:   name,
			Gains:  cfgs[i].Gains,
			Report: metrics.Analyze(results[i], opts),
		}
	}
	return evals, nil
}
