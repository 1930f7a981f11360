// Package export writes runs out of the store: response charts through
// gonum/plot and raw data as JSON or CSV.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/loopsim/internal/sim"
)

func xys(times, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	return pts
}

func addLine(p *plot.Plot, name string, color int, pts plotter.XYs, dashed bool) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%s line: %w", name, err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = plotutil.Color(color)
	if dashed {
		line.LineStyle.Dashes = plotutil.Dashes(1)
	}
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// ResponseChart plots reference and output against time. With control set,
// the control signal is added to the same axes.
func ResponseChart(res *sim.Result, title string, control bool) (*plot.Plot, error) {
	if res == nil || res.Len() == 0 {
		return nil, fmt.Errorf("export: empty result")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "value"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := addLine(p, "reference", 1, xys(res.Time, res.Reference), true); err != nil {
		return nil, err
	}
	if err := addLine(p, "output", 0, xys(res.Time, res.Output), false); err != nil {
		return nil, err
	}
	if control {
		if err := addLine(p, "control", 2, xys(res.Time, res.Control), false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SaveChart writes p to path; the format follows the extension (png, svg,
// pdf, eps, jpg, tif).
func SaveChart(p *plot.Plot, path string, widthIn, heightIn float64) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	if err := p.Save(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
