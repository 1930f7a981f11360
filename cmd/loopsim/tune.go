package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/tuning"
	"github.com/san-kum/loopsim/internal/viz"
)

func newTuneCmd(opts *rootOptions) *cobra.Command {
	var (
		tuneOpts = tuning.DefaultOptions()
		evaluate bool
		workers  int
		plot     bool
		rule     string
		write    string
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "find the ultimate gain and period, then suggest PID gains",
		Args:  cobra.NoArgs,
	}
	loop := addLoopFlags(cmd.Flags())
	f := cmd.Flags()
	f.Float64Var(&tuneOpts.KpStart, "kp-start", tuneOpts.KpStart, "first proportional gain of the sweep")
	f.Float64Var(&tuneOpts.KpStep, "kp-step", tuneOpts.KpStep, "sweep increment")
	f.Float64Var(&tuneOpts.KpMax, "kp-max", tuneOpts.KpMax, "last proportional gain of the sweep")
	f.Float64Var(&tuneOpts.Duration, "tune-duration", tuneOpts.Duration, "length of each candidate run, 0 for --duration")
	f.Float64Var(&tuneOpts.SustainRatio, "sustain", tuneOpts.SustainRatio, "minimum last/first peak ratio for sustained oscillation")
	f.BoolVar(&evaluate, "evaluate", true, "simulate every suggestion on the configured loop")
	f.IntVar(&workers, "workers", 0, "parallel evaluations, 0 for GOMAXPROCS")
	f.BoolVar(&plot, "plot", false, "draw the oscillation at the ultimate gain")
	f.StringVar(&rule, "rule", "", "tuning rule to write with --write: "+strings.Join(tuning.RuleNames(), ", "))
	f.StringVar(&write, "write", "", "save the loop config with the --rule gains to this file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logr.FromContextOrDiscard(ctx)

		if write != "" && rule == "" {
			return fmt.Errorf("--write needs --rule")
		}

		cfg, err := loop.resolve(cmd)
		if err != nil {
			return err
		}

		session, err := tuning.New(cfg.ToSim(), tuneOpts).Tune(ctx)
		opts.telemetry.RecordSession(session)
		if err != nil {
			if session != nil && errors.Is(err, tuning.ErrTuningIncomplete) {
				fmt.Fprintln(cmd.OutOrStdout(), viz.Session(session, nil))
			}
			return err
		}

		var evals []tuning.Evaluation
		if evaluate {
			if evals, err = tuning.Evaluate(ctx, session, cfg.ToSim(), cfg.Analysis(), workers); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), viz.Session(session, evals))
		if plot && session.Oscillation != nil {
			fmt.Fprintln(cmd.OutOrStdout(), viz.Response(session.Oscillation, viz.DefaultPlotOptions()))
		}

		if rule == "" {
			return nil
		}
		gains, err := session.Suggest(rule)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: kp=%.4f ki=%.4f kd=%.4f\n", rule, gains.Kp, gains.Ki, gains.Kd)
		if write == "" {
			return nil
		}
		tuned := cfg.Clone()
		for k, v := range gains.GetParams() {
			if err := tuned.Set(k, v); err != nil {
				return err
			}
		}
		if err := config.Save(write, tuned); err != nil {
			return err
		}
		log.Info("wrote tuned config", "path", write, "rule", rule)
		return nil
	}
	return cmd
}
