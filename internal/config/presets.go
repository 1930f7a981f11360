package config

import "sort"

type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"first-order": {
		Description: "1/(s+1) under PI control",
		apply: func(c *Config) {
			c.Numerator = []float64{1}
			c.Denominator = []float64{1, 1}
			c.Kp, c.Ki = 2, 1
		},
	},
	"second-order": {
		Description: "1/(s^2+3s+2) under proportional control",
		apply: func(c *Config) {
			c.Numerator = []float64{1}
			c.Denominator = []float64{1, 3, 2}
			c.Kp = 2
		},
	},
	"third-order": {
		Description: "1/(s+1)^3 with Ziegler-Nichols gains",
		apply: func(c *Config) {
			c.Numerator = []float64{1}
			c.Denominator = []float64{1, 3, 3, 1}
			c.Kp, c.Ki, c.Kd = 4.8, 2.65, 2.18
			c.Duration = 30
		},
	},
	"integrating": {
		Description: "1/(s^2+s), a plant with a free integrator, under PD control",
		apply: func(c *Config) {
			c.Numerator = []float64{1}
			c.Denominator = []float64{1, 1, 0}
			c.Kp, c.Kd = 1, 0.5
			c.Duration = 20
		},
	},
	"lightly-damped": {
		Description: "1/(s^2+0.2s+1) with filtered PID and clamped output",
		apply: func(c *Config) {
			c.Numerator = []float64{1}
			c.Denominator = []float64{1, 0.2, 1}
			c.Kp, c.Ki, c.Kd = 1, 0.5, 1
			c.DerivativeFilterMode = "firstOrder"
			c.FilterTau = 0.05
			c.AntiWindupMode = "clamping"
			c.UMin, c.UMax = -5, 5
			c.Duration = 30
		},
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
