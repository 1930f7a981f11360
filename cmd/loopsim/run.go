package main

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/viz"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		label  string
		noSave bool
		plot   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one closed loop and report its response metrics",
		Args:  cobra.NoArgs,
	}
	loop := addLoopFlags(cmd.Flags())
	cmd.Flags().StringVar(&label, "label", "", "run label, defaults to the config source")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&plot, "plot", false, "draw the response in the terminal")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logr.FromContextOrDiscard(ctx)

		cfg, err := loop.resolve(cmd)
		if err != nil {
			return err
		}
		if label == "" {
			label = loop.source
		}
		if label == "" {
			label = "run"
		}

		exp := experiment.New(label, cfg)
		if err := exp.Setup(opts.telemetry.Observer()); err != nil {
			return err
		}

		start := time.Now()
		out, err := exp.Run(ctx)
		opts.telemetry.RecordRun(time.Since(start), err)
		if err != nil {
			return err
		}

		if !noSave {
			st, err := opts.store()
			if err != nil {
				return err
			}
			id, err := st.Save(label, out.Config, out.Result, out.Report)
			if err != nil {
				return err
			}
			log.Info("saved run", "id", id)
			fmt.Fprintf(cmd.OutOrStdout(), "run id: %s\n", id)
		}

		fmt.Fprintln(cmd.OutOrStdout(), viz.Report(fmt.Sprintf("%s (%d steps)", label, out.Result.Len()), out.Report))
		if plot {
			fmt.Fprintln(cmd.OutOrStdout(), viz.Response(out.Result, viz.DefaultPlotOptions()))
		}
		return nil
	}
	return cmd
}
