package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/logging"
	"github.com/san-kum/loopsim/internal/storage"
	"github.com/san-kum/loopsim/internal/telemetry"
)

type rootOptions struct {
	dataDir     string
	logLevel    string
	logFormat   string
	metricsFile string

	telemetry *telemetry.Metrics
}

func (o *rootOptions) store() (*storage.Store, error) {
	st := storage.New(o.dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{telemetry: telemetry.New()}

	rootCmd := &cobra.Command{
		Use:           "loopsim",
		Short:         "closed-loop PID simulation and tuning lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			log, err := logging.New(level, opts.logFormat)
			if err != nil {
				return err
			}
			cmd.SetContext(logging.IntoContext(cmd.Context(), log))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.metricsFile == "" {
				return nil
			}
			if err := opts.telemetry.WriteFile(opts.metricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			logr.FromContextOrDiscard(cmd.Context()).V(logging.DEBUG).Info("wrote metrics", "path", opts.metricsFile)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.dataDir, "data-dir", ".loopsim", "directory for saved runs")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log verbosity: info, debug, verbose or trace")
	pf.StringVar(&opts.logFormat, "log-format", "console", "log encoding: console or json")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus text metrics here on exit")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newTuneCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newPlotCmd(opts),
		newRenderCmd(opts),
		newExportCSVCmd(opts),
		newExportJSONCmd(opts),
		newPresetsCmd(),
		newInitConfigCmd(),
		newSweepCmd(),
		newMonteCarloCmd(),
		newBatchCmd(opts),
		newOptimizeCmd(),
	)
	return rootCmd
}

// main exits with status 1 when the command fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
