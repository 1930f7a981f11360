package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/loopsim/internal/sim"
)

type PlotOptions struct {
	Width   int
	Height  int
	Control bool
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 15}
}

// downsample keeps at most n evenly spaced points.
func downsample(series []float64, n int) []float64 {
	if n <= 0 || len(series) <= n {
		return series
	}
	out := make([]float64, n)
	step := float64(len(series)-1) / float64(n-1)
	for i := range out {
		out[i] = series[int(float64(i)*step+0.5)]
	}
	return out
}

// Response draws reference and output on one chart and, optionally, the
// control signal on a second.
func Response(res *sim.Result, opts PlotOptions) string {
	if res == nil || res.Len() < 2 {
		return Subtle.Render("(no samples)")
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 15
	}

	duration := res.Time[res.Len()-1]
	graph := asciigraph.PlotMany(
		[][]float64{
			downsample(res.Reference, opts.Width),
			downsample(res.Output, opts.Width),
		},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Cyan),
		asciigraph.SeriesLegends("reference", "output"),
		asciigraph.Caption(fmt.Sprintf("response, 0 to %.2fs", duration)),
	)
	if !opts.Control {
		return graph
	}

	control := asciigraph.Plot(
		downsample(res.Control, opts.Width),
		asciigraph.Height(opts.Height/2+1),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(asciigraph.Goldenrod),
		asciigraph.Caption("control"),
	)
	return graph + "\n\n" + control
}

// Series draws a single named series.
func Series(name string, values []float64, opts PlotOptions) string {
	if len(values) < 2 {
		return Subtle.Render("(no samples)")
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 10
	}
	return asciigraph.Plot(
		downsample(values, opts.Width),
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(name),
	)
}
