package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/sim"
)

func TestAccumulatorsAsObservers(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Gains = control.Gains{Kp: 40, Ki: 5}
	cfg.AntiWindup = control.AntiWindup{Mode: control.Clamping, Min: -3, Max: 3}

	iae := NewIAE(cfg.Dt)
	effort := NewControlEffort()
	saturation := NewSaturation()

	s := sim.New(nil)
	for _, a := range []Accumulator{iae, effort, saturation} {
		s.AddObserver(a)
	}

	res, err := s.Run(context.Background(), cfg)
	require.NoError(t, err)

	report := Analyze(res, DefaultOptions())
	assert.InDelta(t, report.IAE, iae.Value(), 1e-9)
	assert.InDelta(t, report.ControlEffort, effort.Value(), 1e-9)
	assert.Greater(t, saturation.Value(), 0.0)
	assert.LessOrEqual(t, saturation.Value(), 1.0)
}

func TestAccumulatorReset(t *testing.T) {
	for _, a := range []Accumulator{NewIAE(0.1), NewISE(0.1), NewITAE(0.1), NewControlEffort(), NewSaturation()} {
		a.OnStep(sim.Sample{Time: 1, Error: 2, Control: 3, Saturated: true})
		assert.NotZero(t, a.Value(), a.Name())

		a.Reset()
		assert.Zero(t, a.Value(), a.Name())
	}
}
