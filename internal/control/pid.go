package control

import (
	"fmt"
	"math"

	"github.com/san-kum/loopsim/internal/dynamo"
)

type Gains struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`
}

func (g Gains) String() string {
	return fmt.Sprintf("Kp=%.4g Ki=%.4g Kd=%.4g", g.Kp, g.Ki, g.Kd)
}

// GetParams returns the gains by their config key.
func (g *Gains) GetParams() map[string]float64 {
	return map[string]float64{
		"kp": g.Kp,
		"ki": g.Ki,
		"kd": g.Kd,
	}
}

// SetParam assigns one gain by its config key.
func (g *Gains) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return dynamo.Invalid(name, "must be finite, got %v", value)
	}
	switch name {
	case "kp":
		g.Kp = value
	case "ki":
		g.Ki = value
	case "kd":
		g.Kd = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}

type WindupMode string

const (
	WindupNone WindupMode = "none"
	Clamping   WindupMode = "clamping"
)

func ParseWindupMode(s string) (WindupMode, error) {
	switch WindupMode(s) {
	case WindupNone, "":
		return WindupNone, nil
	case Clamping:
		return Clamping, nil
	}
	return "", fmt.Errorf("unknown anti-windup mode: %q", s)
}

type FilterMode string

const (
	FilterNone FilterMode = "none"
	FirstOrder FilterMode = "firstOrder"
)

func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case FilterNone, "":
		return FilterNone, nil
	case FirstOrder:
		return FirstOrder, nil
	}
	return "", fmt.Errorf("unknown derivative filter mode: %q", s)
}

// AntiWindup saturates the output into [Min, Max] when Mode is Clamping.
type AntiWindup struct {
	Mode WindupMode `json:"mode" yaml:"mode"`
	Min  float64    `json:"min" yaml:"min"`
	Max  float64    `json:"max" yaml:"max"`
}

// Filter low-passes the derivative term with time constant Tau.
type Filter struct {
	Mode FilterMode `json:"mode" yaml:"mode"`
	Tau  float64    `json:"tau" yaml:"tau"`
}

type Options struct {
	AntiWindup AntiWindup
	Filter     Filter
}

// Terms are the individual contributions of the last Compute call.
type Terms struct {
	P     float64
	I     float64
	D     float64
	Error float64
}

type PID struct {
	Gains
	dt   float64
	opts Options

	integral   float64
	prevErr    float64
	derivative float64
	first      bool

	terms     Terms
	saturated bool
}

func NewPID(gains Gains, dt float64, opts Options) *PID {
	return &PID{
		Gains: gains,
		dt:    dt,
		opts:  opts,
		first: true,
	}
}

func (p *PID) Compute(err float64) float64 {
	p.integral += err * p.dt

	raw := 0.0
	if !p.first {
		raw = (err - p.prevErr) / p.dt
	}

	if p.opts.Filter.Mode == FirstOrder {
		alpha := p.dt / (p.opts.Filter.Tau + p.dt)
		p.derivative = alpha*raw + (1-alpha)*p.derivative
	} else {
		p.derivative = raw
	}

	u := p.Kp*err + p.Ki*p.integral + p.Kd*p.derivative

	p.saturated = false
	if p.opts.AntiWindup.Mode == Clamping {
		clamped := clamp(u, p.opts.AntiWindup.Min, p.opts.AntiWindup.Max)
		if clamped != u {
			p.saturated = true
			// Without an integral gain there is nothing to back-correct.
			if p.Ki != 0 {
				p.integral -= (u - clamped) / p.Ki
			}
			u = clamped
		}
	}

	p.terms = Terms{
		P:     p.Kp * err,
		I:     p.Ki * p.integral,
		D:     p.Kd * p.derivative,
		Error: err,
	}
	p.prevErr = err
	p.first = false

	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.derivative = 0
	p.first = true
	p.terms = Terms{}
	p.saturated = false
}

func (p *PID) Terms() Terms { return p.terms }

// Saturated reports whether the last output was clamped.
func (p *PID) Saturated() bool { return p.saturated }

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

var (
	_ dynamo.Controller   = (*PID)(nil)
	_ dynamo.Configurable = (*Gains)(nil)
	_ dynamo.Configurable = (*PID)(nil)
)
