// Package config reads and writes the flat YAML run configuration and maps
// it onto the simulation and analysis types.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/plant"
	"github.com/san-kum/loopsim/internal/signal"
	"github.com/san-kum/loopsim/internal/sim"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultKp       = 2.0
	DefaultUMin     = -10.0
	DefaultUMax     = 10.0
	DefaultTau      = 0.1
)

type Config struct {
	Numerator   []float64 `yaml:"numerator"`
	Denominator []float64 `yaml:"denominator"`

	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`

	ReferenceKind string  `yaml:"referenceKind"`
	Amplitude     float64 `yaml:"amplitude"`
	Frequency     float64 `yaml:"frequency"`
	RampClamp     float64 `yaml:"rampClamp"`

	TimeStep float64 `yaml:"timeStep"`
	Duration float64 `yaml:"duration"`

	AntiWindupMode string  `yaml:"antiWindupMode"`
	UMin           float64 `yaml:"uMin"`
	UMax           float64 `yaml:"uMax"`

	DerivativeFilterMode string  `yaml:"derivativeFilterMode"`
	FilterTau            float64 `yaml:"filterTau"`

	DisturbanceAmplitude float64 `yaml:"disturbanceAmplitude"`
	Seed                 int64   `yaml:"seed"`

	SettlingTolerance float64 `yaml:"settlingTolerance"`
	SteadyStateSign   string  `yaml:"steadyStateSign"`

	Integrator string `yaml:"integrator"`
}

func DefaultConfig() *Config {
	return &Config{
		Numerator:            []float64{1},
		Denominator:          []float64{1, 3, 2},
		Kp:                   DefaultKp,
		ReferenceKind:        string(signal.Step),
		Amplitude:            1,
		TimeStep:             DefaultDt,
		Duration:             DefaultDuration,
		AntiWindupMode:       string(control.WindupNone),
		UMin:                 DefaultUMin,
		UMax:                 DefaultUMax,
		DerivativeFilterMode: string(control.FilterNone),
		FilterTau:            DefaultTau,
		SettlingTolerance:    metrics.DefaultSettlingTolerance,
		SteadyStateSign:      string(metrics.Signed),
		Integrator:           "rk4",
	}
}

// Load reads path over the defaults. Keys that do not map to a field are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.Apply(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply decodes YAML over c, leaving absent keys untouched.
func (c *Config) Apply(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Set assigns a numeric key by its YAML name. Gains must be finite.
func (c *Config) Set(key string, value float64) error {
	g := control.Gains{Kp: c.Kp, Ki: c.Ki, Kd: c.Kd}
	if _, ok := g.GetParams()[key]; ok {
		if err := g.SetParam(key, value); err != nil {
			return err
		}
		c.Kp, c.Ki, c.Kd = g.Kp, g.Ki, g.Kd
		return nil
	}
	field, ok := c.numeric()[key]
	if !ok {
		return fmt.Errorf("%w: %s (numeric keys: %v)", dynamo.ErrUnknownParam, key, NumericKeys())
	}
	*field = value
	return nil
}

// Get reads a numeric key by its YAML name.
func (c *Config) Get(key string) (float64, error) {
	field, ok := c.numeric()[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s (numeric keys: %v)", dynamo.ErrUnknownParam, key, NumericKeys())
	}
	return *field, nil
}

func (c *Config) numeric() map[string]*float64 {
	return map[string]*float64{
		"kp":                   &c.Kp,
		"ki":                   &c.Ki,
		"kd":                   &c.Kd,
		"amplitude":            &c.Amplitude,
		"frequency":            &c.Frequency,
		"rampClamp":            &c.RampClamp,
		"timeStep":             &c.TimeStep,
		"duration":             &c.Duration,
		"uMin":                 &c.UMin,
		"uMax":                 &c.UMax,
		"filterTau":            &c.FilterTau,
		"disturbanceAmplitude": &c.DisturbanceAmplitude,
		"settlingTolerance":    &c.SettlingTolerance,
	}
}

func NumericKeys() []string {
	keys := make([]string, 0, 13)
	for k := range (&Config{}).numeric() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Numerator = append([]float64(nil), c.Numerator...)
	out.Denominator = append([]float64(nil), c.Denominator...)
	return &out
}

func (c *Config) ToSim() sim.Config {
	return sim.Config{
		Plant: plant.TransferFunction{
			Numerator:   append([]float64(nil), c.Numerator...),
			Denominator: append([]float64(nil), c.Denominator...),
		},
		Gains:    control.Gains{Kp: c.Kp, Ki: c.Ki, Kd: c.Kd},
		Dt:       c.TimeStep,
		Duration: c.Duration,
		Reference: signal.Reference{
			Kind:      signal.Kind(c.ReferenceKind),
			Amplitude: c.Amplitude,
			Frequency: c.Frequency,
			RampClamp: c.RampClamp,
		},
		AntiWindup: control.AntiWindup{
			Mode: control.WindupMode(c.AntiWindupMode),
			Min:  c.UMin,
			Max:  c.UMax,
		},
		Filter: control.Filter{
			Mode: control.FilterMode(c.DerivativeFilterMode),
			Tau:  c.FilterTau,
		},
		Disturbance: sim.Disturbance{Amplitude: c.DisturbanceAmplitude, Seed: c.Seed},
		Integrator:  c.Integrator,
	}
}

func (c *Config) Analysis() metrics.Options {
	return metrics.Options{
		SettlingTolerance: c.SettlingTolerance,
		SteadyStateSign:   metrics.SignConvention(c.SteadyStateSign),
	}
}

// FromSim flattens a simulation config and analysis options.
func FromSim(s sim.Config, a metrics.Options) *Config {
	return &Config{
		Numerator:            append([]float64(nil), s.Plant.Numerator...),
		Denominator:          append([]float64(nil), s.Plant.Denominator...),
		Kp:                   s.Gains.Kp,
		Ki:                   s.Gains.Ki,
		Kd:                   s.Gains.Kd,
		ReferenceKind:        string(s.Reference.Kind),
		Amplitude:            s.Reference.Amplitude,
		Frequency:            s.Reference.Frequency,
		RampClamp:            s.Reference.RampClamp,
		TimeStep:             s.Dt,
		Duration:             s.Duration,
		AntiWindupMode:       string(s.AntiWindup.Mode),
		UMin:                 s.AntiWindup.Min,
		UMax:                 s.AntiWindup.Max,
		DerivativeFilterMode: string(s.Filter.Mode),
		FilterTau:            s.Filter.Tau,
		DisturbanceAmplitude: s.Disturbance.Amplitude,
		Seed:                 s.Disturbance.Seed,
		SettlingTolerance:    a.SettlingTolerance,
		SteadyStateSign:      string(a.SteadyStateSign),
		Integrator:           s.Integrator,
	}
}

func (c *Config) Validate() error {
	if err := c.ToSim().Validate(); err != nil {
		return err
	}
	if !dynamo.Finite(c.SettlingTolerance) || c.SettlingTolerance <= 0 || c.SettlingTolerance >= 1 {
		return dynamo.Invalid("settling tolerance", "must be a fraction in (0, 1), got %v", c.SettlingTolerance)
	}
	if _, err := metrics.ParseSignConvention(c.SteadyStateSign); err != nil {
		return dynamo.Invalid("steady-state sign", "%v", err)
	}
	return nil
}
