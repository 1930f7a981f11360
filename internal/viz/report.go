package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/storage"
	"github.com/san-kum/loopsim/internal/tuning"
)

func value(v metrics.Value, unit string) string {
	if !v.Valid {
		return NotApplicable.Render("n/a")
	}
	return MetricValue.Render(fmt.Sprintf("%.4f%s", v.V, unit))
}

func number(v float64) string {
	return MetricValue.Render(fmt.Sprintf("%.4f", v))
}

func row(label, val string) string {
	return MetricLabel.Render(fmt.Sprintf("%-20s", label)) + val
}

// Report renders the response metrics in a panel.
func Report(title string, r metrics.Report) string {
	lines := []string{
		Title.Render(title),
		"",
		row("overshoot", value(r.Overshoot, "%")),
		row("rise time", value(r.RiseTime, "s")),
		row("peak time", value(r.PeakTime, "s")),
		row("settling time", value(r.SettlingTime, "s")),
		row("steady-state error", value(r.SteadyStateError, "")),
		"",
		row("IAE", number(r.IAE)),
		row("ISE", number(r.ISE)),
		row("ITAE", number(r.ITAE)),
		row("control effort", number(r.ControlEffort)),
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

func statusStyle(s tuning.Status) lipgloss.Style {
	switch s {
	case tuning.Tuned, tuning.OscillationFound:
		return StatusGood
	case tuning.Incomplete:
		return StatusWarn
	case tuning.Canceled:
		return StatusBad
	}
	return Subtle
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderCell
			}
			return Cell
		}).
		Headers(headers...)
}

// Session renders the tuning outcome and, when given, how each suggestion
// performed.
func Session(s *tuning.Session, evals []tuning.Evaluation) string {
	var b strings.Builder

	head := []string{
		Title.Render("auto-tune"),
		"",
		row("status", statusStyle(s.Status).Render(string(s.Status))),
		row("candidates", MetricValue.Render(fmt.Sprint(len(s.Candidates)))),
	}
	if s.Status == tuning.Tuned {
		head = append(head,
			row("Ku", number(s.Ku)),
			row("Tu", MetricValue.Render(fmt.Sprintf("%.4fs", s.Tu))),
		)
	}
	b.WriteString(Panel.Render(strings.Join(head, "\n")))
	b.WriteString("\n")

	if s.Status != tuning.Tuned {
		return b.String()
	}

	if len(evals) == 0 {
		t := newTable("rule", "kp", "ki", "kd")
		for _, name := range tuning.RuleNames() {
			g := s.Suggestions[name]
			t.Row(name, f4(g.Kp), f4(g.Ki), f4(g.Kd))
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
		return b.String()
	}

	t := newTable("rule", "kp", "ki", "kd", "overshoot %", "settling s", "IAE")
	for _, e := range evals {
		t.Row(e.Rule, f4(e.Gains.Kp), f4(e.Gains.Ki), f4(e.Gains.Kd),
			e.Report.Overshoot.String(), e.Report.SettlingTime.String(), f4(e.Report.IAE))
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

func f4(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// Runs renders stored runs as a table.
func Runs(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return Subtle.Render("no runs found")
	}
	t := newTable("id", "time", "plant", "gains", "samples", "settling s")
	for _, r := range runs {
		plant, gains := "-", "-"
		if r.Config != nil {
			plant = fmt.Sprintf("%v / %v", r.Config.Numerator, r.Config.Denominator)
			gains = fmt.Sprintf("%g/%g/%g", r.Config.Kp, r.Config.Ki, r.Config.Kd)
		}
		t.Row(r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), plant, gains,
			fmt.Sprint(r.Samples), r.Metrics.SettlingTime.String())
	}
	return t.Render()
}
