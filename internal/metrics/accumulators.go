package metrics

import (
	"math"

	"github.com/san-kum/loopsim/internal/sim"
)

// Accumulator folds a run sample by sample. Accumulators also satisfy
// sim.Observer, so they can be attached to a Simulator directly.
type Accumulator interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// integral sums weight(sample)·dt over the run.
type integral struct {
	name   string
	dt     float64
	sum    float64
	weight func(s sim.Sample) float64
}

func (a *integral) Name() string        { return a.name }
func (a *integral) OnStep(s sim.Sample) { a.sum += a.weight(s) * a.dt }
func (a *integral) Value() float64      { return a.sum }
func (a *integral) Reset()              { a.sum = 0 }

// NewIAE integrates |e|.
func NewIAE(dt float64) Accumulator {
	return &integral{name: "iae", dt: dt, weight: func(s sim.Sample) float64 { return math.Abs(s.Error) }}
}

// NewISE integrates e².
func NewISE(dt float64) Accumulator {
	return &integral{name: "ise", dt: dt, weight: func(s sim.Sample) float64 { return s.Error * s.Error }}
}

// NewITAE integrates t·|e|.
func NewITAE(dt float64) Accumulator {
	return &integral{name: "itae", dt: dt, weight: func(s sim.Sample) float64 { return s.Time * math.Abs(s.Error) }}
}

// ControlEffort is the mean absolute control signal.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) OnStep(s sim.Sample) {
	c.sum += math.Abs(s.Control)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Saturation is the fraction of steps where the controller output was clamped.
type Saturation struct {
	saturated int
	samples   int
}

func NewSaturation() *Saturation {
	return &Saturation{}
}

func (s *Saturation) Name() string { return "saturation" }

func (s *Saturation) OnStep(sample sim.Sample) {
	s.samples++
	if sample.Saturated {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
