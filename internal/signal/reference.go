// Package signal generates the setpoint and disturbance inputs of a run.
package signal

import (
	"fmt"
	"math"
)

type Kind string

const (
	Step   Kind = "step"
	Ramp   Kind = "ramp"
	Sine   Kind = "sine"
	Square Kind = "square"
)

var kinds = []Kind{Step, Ramp, Sine, Square}

func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown reference kind: %q (available: %v)", s, kinds)
}

// Reference describes the setpoint signal. RampClamp > 0 holds a ramp at its
// value from that time on; zero leaves the ramp unbounded.
type Reference struct {
	Kind      Kind    `json:"kind" yaml:"kind"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
	RampClamp float64 `json:"ramp_clamp" yaml:"ramp_clamp"`
}

// At returns the setpoint at time t.
func (r Reference) At(t float64) float64 {
	switch r.Kind {
	case Ramp:
		if r.RampClamp > 0 && t > r.RampClamp {
			t = r.RampClamp
		}
		return r.Amplitude * t
	case Sine:
		return r.Amplitude * math.Sin(2*math.Pi*r.Frequency*t)
	case Square:
		return r.Amplitude * sign(math.Sin(2*math.Pi*r.Frequency*t))
	default:
		return r.Amplitude
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
