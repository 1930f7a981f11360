package main

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/automation"
	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/optim"
	"github.com/san-kum/loopsim/internal/viz"
)

func newSweepCmd() *cobra.Command {
	var (
		param    string
		lo, hi   float64
		steps    int
		workers  int
		plotCost string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one numeric parameter and compare the responses",
		Args:  cobra.NoArgs,
	}
	loop := addLoopFlags(cmd.Flags())
	cmd.Flags().StringVar(&param, "param", "kp", "config key to vary: "+strings.Join(config.NumericKeys(), ", "))
	cmd.Flags().Float64Var(&lo, "min", 0.5, "first value")
	cmd.Flags().Float64Var(&hi, "max", 5, "last value")
	cmd.Flags().IntVar(&steps, "steps", 10, "number of values")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs, 0 for GOMAXPROCS")
	cmd.Flags().StringVar(&plotCost, "plot", "", "also chart this metric across the sweep")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loop.resolve(cmd)
		if err != nil {
			return err
		}
		results, err := automation.RunSweep(cmd.Context(), cfg, param, lo, hi, steps, workers)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), viz.Sweep(param, results))
		if plotCost == "" {
			return nil
		}
		costs := make([]float64, len(results))
		for i, r := range results {
			if costs[i], err = r.Report.Lookup(plotCost); err != nil {
				return err
			}
		}
		caption := fmt.Sprintf("%s over %s = %g .. %g", plotCost, param, lo, hi)
		fmt.Fprintln(cmd.OutOrStdout(), viz.Series(caption, costs, viz.DefaultPlotOptions()))
		return nil
	}
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	var (
		trials  int
		seed    int64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a disturbed loop over many seeds and summarize the metrics",
		Args:  cobra.NoArgs,
	}
	loop := addLoopFlags(cmd.Flags())
	cmd.Flags().IntVar(&trials, "trials", 50, "number of runs")
	cmd.Flags().Int64Var(&seed, "trial-seed", 1, "seed for drawing the per-trial disturbance seeds")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs, 0 for GOMAXPROCS")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loop.resolve(cmd)
		if err != nil {
			return err
		}
		if cfg.DisturbanceAmplitude == 0 {
			logr.FromContextOrDiscard(cmd.Context()).Info("disturbance amplitude is zero, every trial is identical")
		}
		mc, err := automation.RunMonteCarlo(cmd.Context(), cfg, trials, seed, workers)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), viz.MonteCarlo(mc))
		return nil
	}
	return cmd
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var noSave bool
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted scenario of experiments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			st, err := opts.store()
			if err != nil {
				return err
			}
			if noSave {
				st = nil
			}
			outcomes, err := automation.RunScenario(cmd.Context(), scenario, st)
			for _, o := range outcomes {
				opts.telemetry.RecordRun(o.Elapsed, nil)
			}
			if len(outcomes) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), viz.Outcomes(outcomes))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "ignore the save flag of every step")
	return cmd
}

func newOptimizeCmd() *cobra.Command {
	var (
		metric string
		kp, ki []float64
		kd     []float64
		points int
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search the PID gains for the lowest cost",
		Args:  cobra.NoArgs,
	}
	loop := addLoopFlags(cmd.Flags())
	cmd.Flags().StringVar(&metric, "metric", "itae", "cost to minimize: "+strings.Join(metrics.Names, ", "))
	cmd.Flags().Float64SliceVar(&kp, "kp-range", []float64{0.5, 10}, "kp search interval")
	cmd.Flags().Float64SliceVar(&ki, "ki-range", []float64{0, 5}, "ki search interval")
	cmd.Flags().Float64SliceVar(&kd, "kd-range", []float64{0, 1}, "kd search interval")
	cmd.Flags().IntVar(&points, "points", 6, "grid points per gain")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		base, err := loop.resolve(cmd)
		if err != nil {
			return err
		}
		names := []string{"kp", "ki", "kd"}
		ranges := make([][]float64, len(names))
		for i, r := range [][]float64{kp, ki, kd} {
			if len(r) != 2 {
				return fmt.Errorf("--%s-range needs two values, got %v", names[i], r)
			}
			ranges[i] = optim.Linspace(r[0], r[1], points)
		}

		build := func(params map[string]float64) (*experiment.Experiment, error) {
			cfg := base.Clone()
			for k, v := range params {
				if err := cfg.Set(k, v); err != nil {
					return nil, err
				}
			}
			return experiment.New("grid", cfg), nil
		}
		best, cost, evaluated, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), build, metric)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "evaluated %d points\nbest %s=%.6f at kp=%.4f ki=%.4f kd=%.4f\n",
			len(evaluated), metric, cost, best["kp"], best["ki"], best["kd"])
		return nil
	}
	return cmd
}
