package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/export"
	"github.com/san-kum/loopsim/internal/storage"
	"github.com/san-kum/loopsim/internal/viz"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			runs, err := st.List()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), viz.Runs(runs))
			return nil
		},
	}
}

// runID resolves "latest" to the newest saved run.
func runID(st *storage.Store, arg string) (string, error) {
	if arg != "latest" {
		return arg, nil
	}
	meta, err := st.Latest()
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run_id|latest]",
		Short: "show the metrics of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			id, err := runID(st, args[0])
			if err != nil {
				return err
			}
			meta, err := st.Load(id)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("%s  %s", meta.ID, meta.Timestamp.Format("2006-01-02 15:04:05"))
			if meta.Config != nil {
				title += fmt.Sprintf("\nplant %v / %v  gains %g/%g/%g", meta.Config.Numerator, meta.Config.Denominator,
					meta.Config.Kp, meta.Config.Ki, meta.Config.Kd)
				if tf := meta.Config.ToSim().Plant; len(tf.Denominator) > 0 {
					title += fmt.Sprintf("  dc gain %.4g", tf.DCGain())
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), viz.Report(title, meta.Metrics))
			return nil
		},
	}
}

func newPlotCmd(opts *rootOptions) *cobra.Command {
	plotOpts := viz.DefaultPlotOptions()
	cmd := &cobra.Command{
		Use:   "plot [run_id|latest]",
		Short: "draw a saved response in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			id, err := runID(st, args[0])
			if err != nil {
				return err
			}
			res, err := st.LoadSeries(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run: %s\nsamples: %d\n\n", id, res.Len())
			fmt.Fprintln(cmd.OutOrStdout(), viz.Response(res, plotOpts))
			return nil
		},
	}
	cmd.Flags().IntVar(&plotOpts.Width, "width", plotOpts.Width, "plot width in columns")
	cmd.Flags().IntVar(&plotOpts.Height, "height", plotOpts.Height, "plot height in rows")
	cmd.Flags().BoolVar(&plotOpts.Control, "control", plotOpts.Control, "include the control signal")
	return cmd
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		out           string
		width, height float64
		control       bool
	)
	cmd := &cobra.Command{
		Use:   "render [run_id|latest]",
		Short: "render a saved response to an image (png, svg, pdf)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			id, err := runID(st, args[0])
			if err != nil {
				return err
			}
			res, err := st.LoadSeries(id)
			if err != nil {
				return err
			}
			p, err := export.ResponseChart(res, id, control)
			if err != nil {
				return err
			}
			if out == "" {
				out = id + ".png"
			}
			if err := export.SaveChart(p, out, width, height); err != nil {
				return err
			}
			logr.FromContextOrDiscard(cmd.Context()).Info("rendered chart", "path", out)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "image path; the extension picks the format")
	cmd.Flags().Float64Var(&width, "width", 8, "width in inches")
	cmd.Flags().Float64Var(&height, "height", 4, "height in inches")
	cmd.Flags().BoolVar(&control, "control", false, "include the control signal")
	return cmd
}

// output opens path for writing, or stdout when path is empty.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newExportCSVCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id|latest]",
		Short: "export a saved run's time series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			id, err := runID(st, args[0])
			if err != nil {
				return err
			}
			res, err := st.LoadSeries(id)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err := export.WriteCSV(w, res); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write, stdout when empty")
	return cmd
}

func newExportJSONCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id|latest]",
		Short: "export a saved run with its config and metrics to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			id, err := runID(st, args[0])
			if err != nil {
				return err
			}
			meta, err := st.Load(id)
			if err != nil {
				return err
			}
			res, err := st.LoadSeries(id)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err := export.WriteJSON(w, export.NewDocument(meta.ID, meta.Config, meta.Metrics, res)); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write, stdout when empty")
	return cmd
}
