package config

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, sim.DefaultConfig(), cfg.ToSim())
	assert.Equal(t, metrics.DefaultOptions(), cfg.Analysis())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	// Arrange
	cfg := GetPreset("lightly-damped")
	cfg.ReferenceKind = "sine"
	cfg.Frequency = 0.3
	cfg.Seed = 99
	cfg.SteadyStateSign = "absolute"
	path := filepath.Join(t.TempDir(), "loop.yaml")

	// Act
	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	want, err := sim.Simulate(context.Background(), cfg.ToSim())
	require.NoError(t, err)
	got, err := sim.Simulate(context.Background(), loaded.ToSim())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRoundTripWithDisturbance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisturbanceAmplitude = 0.05
	cfg.Seed = 7
	path := filepath.Join(t.TempDir(), "noisy.yaml")

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	want, err := sim.Simulate(context.Background(), cfg.ToSim())
	require.NoError(t, err)
	got, err := sim.Simulate(context.Background(), loaded.ToSim())
	require.NoError(t, err)
	assert.Equal(t, want.Output, got.Output)
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("kp: 5\ndenominator: [1, 1]\n"))
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Kp)
	assert.Equal(t, []float64{1, 1}, cfg.Denominator)
	assert.Equal(t, DefaultDt, cfg.TimeStep)
	assert.Equal(t, "step", cfg.ReferenceKind)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("kp: 1\nproportional: 2\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero time step", func(c *Config) { c.TimeStep = 0 }, "dt"},
		{"empty numerator", func(c *Config) { c.Numerator = nil }, "numerator"},
		{"bad reference", func(c *Config) { c.ReferenceKind = "pulse" }, "reference kind"},
		{"zero tolerance", func(c *Config) { c.SettlingTolerance = 0 }, "settling tolerance"},
		{"tolerance above one", func(c *Config) { c.SettlingTolerance = 1.5 }, "settling tolerance"},
		{"bad sign", func(c *Config) { c.SteadyStateSign = "relative" }, "steady-state sign"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			var verr *dynamo.ValidationError
			require.ErrorAs(t, cfg.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFromSim(t *testing.T) {
	cfg := GetPreset("third-order")

	back := FromSim(cfg.ToSim(), cfg.Analysis())

	assert.Equal(t, cfg, back)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.Clone()
	c.Denominator[0] = 5

	assert.Equal(t, 1.0, cfg.Denominator[0])
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	require.Equal(t, []string{"first-order", "integrating", "lightly-damped", "second-order", "third-order"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			require.NoError(t, cfg.Validate())

			_, err := sim.Simulate(context.Background(), cfg.ToSim())
			require.NoError(t, err)
		})
	}
}

func TestGetPresetIsFresh(t *testing.T) {
	a := GetPreset("first-order")
	a.Kp = 100

	b := GetPreset("first-order")
	assert.Equal(t, 2.0, b.Kp)
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestSetGet(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Set("ki", 3))
	require.NoError(t, cfg.Set("disturbanceAmplitude", 0.1))
	assert.Equal(t, 3.0, cfg.Ki)
	assert.Equal(t, 0.1, cfg.DisturbanceAmplitude)

	v, err := cfg.Get("ki")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	assert.ErrorIs(t, cfg.Set("seed", 1), dynamo.ErrUnknownParam)
	_, err = cfg.Get("numerator")
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)
	assert.Contains(t, NumericKeys(), "kp")
}

func TestSetRejectsNonFiniteGain(t *testing.T) {
	cfg := DefaultConfig()
	before := cfg.Kd

	err := cfg.Set("kd", math.NaN())
	var verr *dynamo.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kd", verr.Field)
	assert.Equal(t, before, cfg.Kd)

	require.NoError(t, cfg.Set("kp", 7))
	assert.Equal(t, 7.0, cfg.Kp)
}

func TestSaveMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "loop.yaml")

	err := Save(path, DefaultConfig())
	require.ErrorContains(t, err, "write config "+path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestApplyOverlay(t *testing.T) {
	cfg := GetPreset("third-order")

	require.NoError(t, cfg.Apply([]byte("kd: 0\nduration: 5\n")))
	assert.Equal(t, 0.0, cfg.Kd)
	assert.Equal(t, 5.0, cfg.Duration)
	assert.Equal(t, 4.8, cfg.Kp)

	assert.Error(t, cfg.Apply([]byte("gain: 1\n")))
}
