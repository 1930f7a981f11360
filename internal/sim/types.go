package sim

import (
	"math"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/integrators"
	"github.com/san-kum/loopsim/internal/plant"
	"github.com/san-kum/loopsim/internal/signal"
)

// Disturbance is additive uniform noise on the measured output.
type Disturbance struct {
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Seed      int64   `json:"seed" yaml:"seed"`
}

// Config fully describes one closed-loop run.
type Config struct {
	Plant       plant.TransferFunction `json:"plant" yaml:"plant"`
	Gains       control.Gains          `json:"gains" yaml:"gains"`
	Dt          float64                `json:"dt" yaml:"dt"`
	Duration    float64                `json:"duration" yaml:"duration"`
	Reference   signal.Reference       `json:"reference" yaml:"reference"`
	AntiWindup  control.AntiWindup     `json:"anti_windup" yaml:"anti_windup"`
	Filter      control.Filter         `json:"filter" yaml:"filter"`
	Disturbance Disturbance            `json:"disturbance" yaml:"disturbance"`
	Integrator  string                 `json:"integrator,omitempty" yaml:"integrator,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Plant: plant.TransferFunction{
			Numerator:   []float64{1},
			Denominator: []float64{1, 3, 2},
		},
		Gains:     control.Gains{Kp: 2},
		Dt:        0.01,
		Duration:  10,
		Reference: signal.Reference{Kind: signal.Step, Amplitude: 1},
		AntiWindup: control.AntiWindup{
			Mode: control.WindupNone,
			Min:  -10,
			Max:  10,
		},
		Filter:     control.Filter{Mode: control.FilterNone, Tau: 0.1},
		Integrator: "rk4",
	}
}

// MaxSteps bounds the samples of one run; every sample keeps five float64
// series entries.
const MaxSteps = 5_000_000

// Steps is the number of samples a run produces.
func (c Config) Steps() int {
	return int(math.Floor(c.Duration/c.Dt + 1e-9))
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	out := c
	out.Plant.Numerator = append([]float64(nil), c.Plant.Numerator...)
	out.Plant.Denominator = append([]float64(nil), c.Plant.Denominator...)
	return out
}

// Validate checks everything except plant degeneracy, which plant.New
// reports as an InvalidPlantError.
func (c Config) Validate() error {
	if !dynamo.Finite(c.Dt) || c.Dt <= 0 {
		return dynamo.Invalid("dt", "must be positive and finite, got %v", c.Dt)
	}
	if !dynamo.Finite(c.Duration) || c.Duration <= 0 {
		return dynamo.Invalid("duration", "must be positive and finite, got %v", c.Duration)
	}
	if n := c.Duration / c.Dt; n > MaxSteps {
		return dynamo.Invalid("duration", "%v at dt %v needs %.4g steps, more than the limit of %d", c.Duration, c.Dt, n, MaxSteps)
	}
	if c.Steps() < 1 {
		return dynamo.Invalid("duration", "%v is shorter than one step of %v", c.Duration, c.Dt)
	}
	if len(c.Plant.Numerator) == 0 {
		return dynamo.Invalid("numerator", "must not be empty")
	}
	if len(c.Plant.Denominator) == 0 {
		return dynamo.Invalid("denominator", "must not be empty")
	}
	if !dynamo.Finite(c.Gains.Kp, c.Gains.Ki, c.Gains.Kd) {
		return dynamo.Invalid("gains", "must be finite, got %s", c.Gains)
	}
	if _, err := signal.ParseKind(string(c.Reference.Kind)); err != nil {
		return dynamo.Invalid("reference kind", "%v", err)
	}
	if !dynamo.Finite(c.Reference.Amplitude, c.Reference.Frequency, c.Reference.RampClamp) {
		return dynamo.Invalid("reference", "amplitude, frequency and ramp clamp must be finite")
	}
	if c.Reference.RampClamp < 0 {
		return dynamo.Invalid("ramp clamp", "must not be negative, got %v", c.Reference.RampClamp)
	}
	if _, err := control.ParseWindupMode(string(c.AntiWindup.Mode)); err != nil {
		return dynamo.Invalid("anti-windup mode", "%v", err)
	}
	if c.AntiWindup.Mode == control.Clamping {
		if !dynamo.Finite(c.AntiWindup.Min, c.AntiWindup.Max) {
			return dynamo.Invalid("control limits", "must be finite")
		}
		if c.AntiWindup.Min >= c.AntiWindup.Max {
			return dynamo.Invalid("control limits", "min %v must be below max %v", c.AntiWindup.Min, c.AntiWindup.Max)
		}
	}
	if _, err := control.ParseFilterMode(string(c.Filter.Mode)); err != nil {
		return dynamo.Invalid("derivative filter mode", "%v", err)
	}
	if !dynamo.Finite(c.Filter.Tau) || c.Filter.Tau < 0 {
		return dynamo.Invalid("filter tau", "must be finite and non-negative, got %v", c.Filter.Tau)
	}
	if !dynamo.Finite(c.Disturbance.Amplitude) || c.Disturbance.Amplitude < 0 {
		return dynamo.Invalid("disturbance amplitude", "must be finite and non-negative, got %v", c.Disturbance.Amplitude)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return dynamo.Invalid("integrator", "%v", err)
	}
	return nil
}

// Sample is one step of a run as seen by observers.
type Sample struct {
	Index     int
	Time      float64
	Reference float64
	Output    float64
	Error     float64
	Control   float64
	Saturated bool
	// Terms is the P/I/D split of Control; zero for controllers that do not
	// report one.
	Terms control.Terms
}

type Observer interface {
	OnStep(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }

// Result holds the sampled trajectories of one run. All slices have the
// same length.
type Result struct {
	Time      []float64 `json:"time"`
	Reference []float64 `json:"reference"`
	Output    []float64 `json:"output"`
	Error     []float64 `json:"error"`
	Control   []float64 `json:"control"`
}

func newResult(n int) *Result {
	return &Result{
		Time:      make([]float64, 0, n),
		Reference: make([]float64, 0, n),
		Output:    make([]float64, 0, n),
		Error:     make([]float64, 0, n),
		Control:   make([]float64, 0, n),
	}
}

func (r *Result) append(s Sample) {
	r.Time = append(r.Time, s.Time)
	r.Reference = append(r.Reference, s.Reference)
	r.Output = append(r.Output, s.Output)
	r.Error = append(r.Error, s.Error)
	r.Control = append(r.Control, s.Control)
}

func (r *Result) Len() int { return len(r.Time) }
