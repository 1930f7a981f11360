package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/integrators"
)

// loopFlags describe one closed loop on the command line. The preset or
// config file is loaded first and only flags the user set override it.
type loopFlags struct {
	source string
	values config.Config
}

func addLoopFlags(fs *pflag.FlagSet) *loopFlags {
	lf := &loopFlags{}
	d := config.DefaultConfig()
	v := &lf.values

	fs.StringVar(&lf.source, "config", "", "preset name or YAML config file")
	fs.Float64SliceVar(&v.Numerator, "num", d.Numerator, "plant numerator coefficients, highest power first")
	fs.Float64SliceVar(&v.Denominator, "den", d.Denominator, "plant denominator coefficients, highest power first")
	fs.Float64Var(&v.Kp, "kp", d.Kp, "proportional gain")
	fs.Float64Var(&v.Ki, "ki", d.Ki, "integral gain")
	fs.Float64Var(&v.Kd, "kd", d.Kd, "derivative gain")
	fs.StringVar(&v.ReferenceKind, "reference", d.ReferenceKind, "reference kind: step, ramp, sine or square")
	fs.Float64Var(&v.Amplitude, "amplitude", d.Amplitude, "reference amplitude")
	fs.Float64Var(&v.Frequency, "frequency", d.Frequency, "reference frequency in Hz")
	fs.Float64Var(&v.RampClamp, "ramp-clamp", d.RampClamp, "ramp saturation level, 0 for none")
	fs.Float64Var(&v.TimeStep, "dt", d.TimeStep, "time step in seconds")
	fs.Float64Var(&v.Duration, "duration", d.Duration, "simulated time in seconds")
	fs.StringVar(&v.AntiWindupMode, "anti-windup", d.AntiWindupMode, "anti-windup mode: none or clamping")
	fs.Float64Var(&v.UMin, "u-min", d.UMin, "lower control limit")
	fs.Float64Var(&v.UMax, "u-max", d.UMax, "upper control limit")
	fs.StringVar(&v.DerivativeFilterMode, "filter", d.DerivativeFilterMode, "derivative filter: none or firstOrder")
	fs.Float64Var(&v.FilterTau, "tau", d.FilterTau, "derivative filter time constant")
	fs.Float64Var(&v.DisturbanceAmplitude, "disturbance", d.DisturbanceAmplitude, "output disturbance amplitude")
	fs.Int64Var(&v.Seed, "seed", d.Seed, "disturbance seed")
	fs.Float64Var(&v.SettlingTolerance, "settling-tol", d.SettlingTolerance, "settling band as a fraction of the final value")
	fs.StringVar(&v.SteadyStateSign, "sse-sign", d.SteadyStateSign, "steady-state error convention: signed or absolute")
	fs.StringVar(&v.Integrator, "integrator", d.Integrator,
		fmt.Sprintf("integration method: %s", strings.Join(integrators.Names(), ", ")))
	return lf
}

// resolve loads the base config and overlays every flag that was set.
func (lf *loopFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := experiment.Resolve(lf.source)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	v := lf.values
	overrides := map[string]func(){
		"num":          func() { cfg.Numerator = v.Numerator },
		"den":          func() { cfg.Denominator = v.Denominator },
		"kp":           func() { cfg.Kp = v.Kp },
		"ki":           func() { cfg.Ki = v.Ki },
		"kd":           func() { cfg.Kd = v.Kd },
		"reference":    func() { cfg.ReferenceKind = v.ReferenceKind },
		"amplitude":    func() { cfg.Amplitude = v.Amplitude },
		"frequency":    func() { cfg.Frequency = v.Frequency },
		"ramp-clamp":   func() { cfg.RampClamp = v.RampClamp },
		"dt":           func() { cfg.TimeStep = v.TimeStep },
		"duration":     func() { cfg.Duration = v.Duration },
		"anti-windup":  func() { cfg.AntiWindupMode = v.AntiWindupMode },
		"u-min":        func() { cfg.UMin = v.UMin },
		"u-max":        func() { cfg.UMax = v.UMax },
		"filter":       func() { cfg.DerivativeFilterMode = v.DerivativeFilterMode },
		"tau":          func() { cfg.FilterTau = v.FilterTau },
		"disturbance":  func() { cfg.DisturbanceAmplitude = v.DisturbanceAmplitude },
		"seed":         func() { cfg.Seed = v.Seed },
		"settling-tol": func() { cfg.SettlingTolerance = v.SettlingTolerance },
		"sse-sign":     func() { cfg.SteadyStateSign = v.SteadyStateSign },
		"integrator":   func() { cfg.Integrator = v.Integrator },
	}
	for name, apply := range overrides {
		if fs.Changed(name) {
			apply()
		}
	}
	return cfg, cfg.Validate()
}
