package viz

import (
	"fmt"
	"time"

	"github.com/san-kum/loopsim/internal/automation"
	"github.com/san-kum/loopsim/internal/experiment"
)

// Sweep renders one row per swept value.
func Sweep(param string, results []automation.SweepResult) string {
	t := newTable(param, "overshoot %", "rise s", "settling s", "sse", "IAE", "effort")
	for _, r := range results {
		t.Row(fmt.Sprintf("%g", r.Value),
			r.Report.Overshoot.String(), r.Report.RiseTime.String(), r.Report.SettlingTime.String(),
			r.Report.SteadyStateError.String(), f4(r.Report.IAE), f4(r.Report.ControlEffort))
	}
	return t.Render()
}

func MonteCarlo(mc *automation.MonteCarloResult) string {
	head := Title.Render(fmt.Sprintf("monte carlo: %d trials", len(mc.Trials)))
	t := newTable("metric", "n", "mean", "std", "min", "max")
	for _, s := range mc.Summaries {
		t.Row(s.Metric, fmt.Sprint(s.N), f4(s.Mean), f4(s.StdDev), f4(s.Min), f4(s.Max))
	}
	return head + "\n" + t.Render()
}

// Outcomes summarizes a batch of experiments.
func Outcomes(outs []*experiment.Outcome) string {
	t := newTable("step", "gains", "overshoot %", "settling s", "sse", "IAE", "elapsed")
	for _, o := range outs {
		t.Row(o.Name, fmt.Sprintf("%g/%g/%g", o.Config.Kp, o.Config.Ki, o.Config.Kd),
			o.Report.Overshoot.String(), o.Report.SettlingTime.String(),
			o.Report.SteadyStateError.String(), f4(o.Report.IAE), o.Elapsed.Round(time.Microsecond).String())
	}
	return t.Render()
}
