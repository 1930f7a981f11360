package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/loopsim/internal/integrators"
)

// Ensemble runs independent configurations concurrently. Each run gets its
// own Simulator so no run-scoped state is shared.
type Ensemble struct {
	// Workers bounds concurrency; zero means GOMAXPROCS.
	Workers int
}

func NewEnsemble(workers int) *Ensemble {
	return &Ensemble{Workers: workers}
}

// Run simulates every config and returns results in input order. The first
// failure cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, cfgs []Config) ([]*Result, error) {
	results := make([]*Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			integ, err := integrators.New(cfg.Integrator)
			if err != nil {
				return err
			}
			res, err := New(integ).Run(ctx, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
