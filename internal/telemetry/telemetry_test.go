package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/sim"
	"github.com/san-kum/loopsim/internal/tuning"
)

func TestOutcome(t *testing.T) {
	tests := map[string]error{
		"ok":       nil,
		"canceled": dynamo.Canceled(context.Canceled),
		"unstable": &dynamo.StepError{Step: 3, Wrapped: dynamo.ErrUnstable},
		"invalid":  dynamo.Invalid("dt", "bad"),
		"error":    errors.New("disk full"),
	}
	for want, err := range tests {
		assert.Equal(t, want, outcome(err))
	}
	assert.Equal(t, "invalid", outcome(&dynamo.InvalidPlantError{Reason: "x"}))
}

func TestWriteFile(t *testing.T) {
	// Arrange
	m := New()
	cfg := sim.DefaultConfig()
	cfg.Gains = control.Gains{Kp: 50}
	cfg.AntiWindup = control.AntiWindup{Mode: control.Clamping, Min: -1, Max: 1}
	cfg.Duration = 1

	s := sim.New(nil)
	s.AddObserver(m.Observer())

	// Act
	start := time.Now()
	_, err := s.Run(context.Background(), cfg)
	m.RecordRun(time.Since(start), err)
	m.RecordRun(0, dynamo.Invalid("dt", "bad"))
	m.RecordSession(&tuning.Session{Status: tuning.Tuned, Ku: 8, Tu: 3.6, Candidates: make([]tuning.Candidate, 16)})

	path := filepath.Join(t.TempDir(), "loopsim.prom")
	require.NoError(t, m.WriteFile(path))

	// Assert
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `loopsim_runs_total{result="ok"} 1`)
	assert.Contains(t, text, `loopsim_runs_total{result="invalid"} 1`)
	assert.Contains(t, text, "loopsim_steps_total 100")
	assert.Contains(t, text, "loopsim_saturated_steps_total")
	assert.Contains(t, text, "loopsim_run_duration_seconds_count 1")
	assert.Contains(t, text, `loopsim_tuning_sessions_total{status="tuned"} 1`)
	assert.Contains(t, text, "loopsim_tuning_candidates_total 16")
	assert.Contains(t, text, "loopsim_ultimate_gain 8")
	assert.Contains(t, text, "loopsim_ultimate_period_seconds 3.6")
}

func TestRecordSessionIncomplete(t *testing.T) {
	m := New()
	m.RecordSession(&tuning.Session{Status: tuning.Incomplete})
	m.RecordSession(nil)

	path := filepath.Join(t.TempDir(), "loopsim.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), `loopsim_tuning_sessions_total{status="incomplete"} 1`)
	assert.Contains(t, string(data), "loopsim_ultimate_gain 0")
}

func TestObserverRecordsTerms(t *testing.T) {
	m := New()
	obs := m.Observer()
	obs.OnStep(sim.Sample{Error: 0.5, Control: 1.75, Terms: control.Terms{P: 1, I: 0.5, D: 0.25, Error: 0.5}})

	path := filepath.Join(t.TempDir(), "loopsim.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `loopsim_last_pid_term{term="p"} 1`)
	assert.Contains(t, text, `loopsim_last_pid_term{term="i"} 0.5`)
	assert.Contains(t, text, `loopsim_last_pid_term{term="d"} 0.25`)
	assert.Contains(t, text, "loopsim_last_control 1.75")
}
