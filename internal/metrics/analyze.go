package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/loopsim/internal/sim"
)

// SignConvention selects how the steady-state error is reported.
type SignConvention string

const (
	Signed   SignConvention = "signed"
	Absolute SignConvention = "absolute"
)

func ParseSignConvention(s string) (SignConvention, error) {
	switch SignConvention(s) {
	case Signed, "":
		return Signed, nil
	case Absolute:
		return Absolute, nil
	}
	return "", fmt.Errorf("unknown steady-state sign convention: %q (available: signed, absolute)", s)
}

const DefaultSettlingTolerance = 0.02

type Options struct {
	// SettlingTolerance is the band half-width as a fraction of |final|.
	SettlingTolerance float64        `json:"settling_tolerance" yaml:"settling_tolerance"`
	SteadyStateSign   SignConvention `json:"steady_state_sign" yaml:"steady_state_sign"`
}

func DefaultOptions() Options {
	return Options{SettlingTolerance: DefaultSettlingTolerance, SteadyStateSign: Signed}
}

// Report holds the response metrics. Times are in seconds from the start of
// the run, overshoot in percent of the final reference.
type Report struct {
	Overshoot        Value `json:"overshoot" yaml:"overshoot"`
	RiseTime         Value `json:"rise_time" yaml:"rise_time"`
	PeakTime         Value `json:"peak_time" yaml:"peak_time"`
	SettlingTime     Value `json:"settling_time" yaml:"settling_time"`
	SteadyStateError Value `json:"steady_state_error" yaml:"steady_state_error"`

	IAE           float64 `json:"iae" yaml:"iae"`
	ISE           float64 `json:"ise" yaml:"ise"`
	ITAE          float64 `json:"itae" yaml:"itae"`
	ControlEffort float64 `json:"control_effort" yaml:"control_effort"`
}

// Analyze never divides by the final reference when it is zero; such
// responses report zero overshoot and zero steady-state error.
func Analyze(res *sim.Result, opts Options) Report {
	if res == nil || res.Len() == 0 {
		return Report{Overshoot: Of(0), SteadyStateError: Of(0)}
	}
	if opts.SettlingTolerance <= 0 {
		opts.SettlingTolerance = DefaultSettlingTolerance
	}

	n := res.Len()
	final := res.Reference[n-1]
	last := res.Output[n-1]
	maxIdx := floats.MaxIdx(res.Output)
	peak := res.Output[maxIdx]

	report := Report{
		Overshoot:        Of(0),
		RiseTime:         riseTime(res, final),
		PeakTime:         NA,
		SettlingTime:     settlingTime(res, final, opts.SettlingTolerance),
		SteadyStateError: Of(0),
	}

	if final > 0 && peak > final {
		report.Overshoot = Of((peak - final) / final * 100)
		report.PeakTime = Of(res.Time[maxIdx])
	}

	if final != 0 {
		sse := final - last
		if opts.SteadyStateSign == Absolute {
			sse = math.Abs(sse)
		}
		report.SteadyStateError = Of(sse)
	}

	dt := 0.0
	if n > 1 {
		dt = res.Time[1] - res.Time[0]
	}
	iae, ise, itae := NewIAE(dt), NewISE(dt), NewITAE(dt)
	effort := NewControlEffort()
	Replay(res, iae, ise, itae, effort)

	report.IAE = iae.Value()
	report.ISE = ise.Value()
	report.ITAE = itae.Value()
	report.ControlEffort = effort.Value()
	return report
}

// Replay feeds a stored result through observers as if it were running.
func Replay(res *sim.Result, observers ...sim.Observer) {
	for i := range res.Time {
		s := sim.Sample{
			Index:     i,
			Time:      res.Time[i],
			Reference: res.Reference[i],
			Output:    res.Output[i],
			Error:     res.Error[i],
			Control:   res.Control[i],
		}
		for _, o := range observers {
			o.OnStep(s)
		}
	}
}

// riseTime measures 10% to 90% of the final value. For a negative final
// value the crossings are mirrored.
func riseTime(res *sim.Result, final float64) Value {
	if final == 0 {
		return NA
	}
	reached := func(y, level float64) bool {
		if final > 0 {
			return y >= level
		}
		return y <= level
	}

	t10, t90 := -1, -1
	for i, y := range res.Output {
		if t10 < 0 && reached(y, 0.1*final) {
			t10 = i
		}
		if t90 < 0 && reached(y, 0.9*final) {
			t90 = i
			break
		}
	}
	if t10 < 0 || t90 < 0 {
		return NA
	}
	return Of(res.Time[t90] - res.Time[t10])
}

// settlingTime is the time of the last sample outside the tolerance band.
func settlingTime(res *sim.Result, final, tol float64) Value {
	if final == 0 {
		return NA
	}
	band := tol * math.Abs(final)
	outside := func(i int) bool { return math.Abs(res.Output[i]-final) > band }

	n := res.Len()
	if outside(n - 1) {
		return NA
	}
	for i := n - 2; i >= 0; i-- {
		if outside(i) {
			return Of(res.Time[i])
		}
	}
	return Of(0)
}

// Names lists the keys accepted by Lookup.
var Names = []string{
	"iae", "ise", "itae", "control_effort",
	"overshoot", "rise_time", "peak_time", "settling_time", "steady_state_error",
}

// Lookup returns a metric by name as a cost: not-applicable values are
// +Inf and the steady-state error is taken in magnitude.
func (r Report) Lookup(name string) (float64, error) {
	switch name {
	case "iae":
		return r.IAE, nil
	case "ise":
		return r.ISE, nil
	case "itae":
		return r.ITAE, nil
	case "control_effort":
		return r.ControlEffort, nil
	case "overshoot":
		return r.Overshoot.Or(math.Inf(1)), nil
	case "rise_time":
		return r.RiseTime.Or(math.Inf(1)), nil
	case "peak_time":
		return r.PeakTime.Or(math.Inf(1)), nil
	case "settling_time":
		return r.SettlingTime.Or(math.Inf(1)), nil
	case "steady_state_error":
		return math.Abs(r.SteadyStateError.Or(math.Inf(1))), nil
	}
	return 0, fmt.Errorf("unknown metric: %s (available: %v)", name, Names)
}
