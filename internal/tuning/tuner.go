package tuning

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/logging"
	"github.com/san-kum/loopsim/internal/signal"
	"github.com/san-kum/loopsim/internal/sim"
)

type Status string

const (
	Idle             Status = "idle"
	Sweeping         Status = "sweeping"
	OscillationFound Status = "oscillation-found"
	Tuned            Status = "tuned"
	Incomplete       Status = "incomplete"
	Canceled         Status = "canceled"
)

type Options struct {
	KpStart float64 `json:"kp_start" yaml:"kp_start"`
	KpStep  float64 `json:"kp_step" yaml:"kp_step"`
	KpMax   float64 `json:"kp_max" yaml:"kp_max"`

	// Duration and Dt of each candidate run; zero uses the base config.
	Duration float64 `json:"duration" yaml:"duration"`
	Dt       float64 `json:"dt" yaml:"dt"`

	// SustainRatio is the minimum last/first peak excursion ratio for an
	// oscillation to count as sustained.
	SustainRatio float64 `json:"sustain_ratio" yaml:"sustain_ratio"`
	// BaselineMargin raises the peak threshold above the window mean by a
	// fraction of the window span.
	BaselineMargin float64 `json:"baseline_margin" yaml:"baseline_margin"`
	// MinSpan ignores windows whose peak-to-peak swing is numerical noise.
	MinSpan float64 `json:"min_span" yaml:"min_span"`
}

func DefaultOptions() Options {
	return Options{
		KpStart:        0.5,
		KpStep:         0.5,
		KpMax:          50,
		SustainRatio:   0.9,
		BaselineMargin: 0.1,
		MinSpan:        1e-4,
	}
}

func (o Options) validate() error {
	if !dynamo.Finite(o.KpStart, o.KpStep, o.KpMax, o.Duration, o.Dt, o.SustainRatio, o.BaselineMargin, o.MinSpan) {
		return dynamo.Invalid("tuning options", "must be finite")
	}
	if o.KpStep <= 0 {
		return dynamo.Invalid("kp step", "must be positive, got %v", o.KpStep)
	}
	if o.KpStart <= 0 || o.KpMax < o.KpStart {
		return dynamo.Invalid("kp range", "need 0 < start <= max, got [%v, %v]", o.KpStart, o.KpMax)
	}
	if o.SustainRatio <= 0 {
		return dynamo.Invalid("sustain ratio", "must be positive, got %v", o.SustainRatio)
	}
	if o.Duration < 0 || o.Dt < 0 {
		return dynamo.Invalid("tuning horizon", "duration and dt must not be negative")
	}
	return nil
}

// Candidate records how one swept Kp behaved.
type Candidate struct {
	Kp        float64 `json:"kp"`
	Peaks     []Peak  `json:"peaks,omitempty"`
	Period    float64 `json:"period,omitempty"`
	Decay     float64 `json:"decay,omitempty"`
	Sustained bool    `json:"sustained"`
	Err       error   `json:"-"`
}

// Session is the outcome of one sweep.
type Session struct {
	Status      Status                   `json:"status"`
	Ku          float64                  `json:"ku,omitempty"`
	Tu          float64                  `json:"tu,omitempty"`
	Candidates  []Candidate              `json:"candidates"`
	Suggestions map[string]control.Gains `json:"suggestions,omitempty"`

	// Oscillation is the run at Ku.
	Oscillation *sim.Result `json:"-"`
}

// Suggest returns the gains of the named rule. The session must be tuned.
func (s *Session) Suggest(rule string) (control.Gains, error) {
	if s.Status != Tuned {
		return control.Gains{}, fmt.Errorf("%w: session is %s", ErrTuningIncomplete, s.Status)
	}
	if _, ok := Rules[rule]; !ok {
		return control.Gains{}, fmt.Errorf("%w: %s (available: %v)", ErrUnknownRule, rule, RuleNames())
	}
	return s.Suggestions[rule], nil
}

type AutoTuner struct {
	base   sim.Config
	opts   Options
	status Status
}

// New copies base; only the plant, integrator and step amplitude are used.
func New(base sim.Config, opts Options) *AutoTuner {
	return &AutoTuner{base: base.Clone(), opts: opts, status: Idle}
}

func (a *AutoTuner) Status() Status { return a.status }

// candidateConfig is a proportional-only step test at gain kp.
func (a *AutoTuner) candidateConfig(kp float64) sim.Config {
	cfg := a.base.Clone()
	cfg.Gains = control.Gains{Kp: kp}
	cfg.AntiWindup = control.AntiWindup{Mode: control.WindupNone}
	cfg.Filter = control.Filter{Mode: control.FilterNone}
	cfg.Disturbance = sim.Disturbance{}

	amp := a.base.Reference.Amplitude
	if amp == 0 {
		amp = 1
	}
	cfg.Reference = signal.Reference{Kind: signal.Step, Amplitude: amp}

	if a.opts.Duration > 0 {
		cfg.Duration = a.opts.Duration
	}
	if a.opts.Dt > 0 {
		cfg.Dt = a.opts.Dt
	}
	return cfg
}

// Tune sweeps Kp from KpStart to KpMax. When no candidate oscillates the
// session is returned with status Incomplete alongside ErrTuningIncomplete.
func (a *AutoTuner) Tune(ctx context.Context) (*Session, error) {
	if err := a.opts.validate(); err != nil {
		return nil, err
	}
	if err := a.candidateConfig(a.opts.KpStart).Validate(); err != nil {
		return nil, err
	}

	log := logr.FromContextOrDiscard(ctx).WithValues("plant", a.base.Plant.String())
	session := &Session{Status: Idle}
	a.transition(log, session, Sweeping)

	steps := int(math.Floor((a.opts.KpMax-a.opts.KpStart)/a.opts.KpStep + 1e-9))
	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			a.transition(log, session, Canceled)
			return session, dynamo.Canceled(err)
		}

		kp := a.opts.KpStart + float64(i)*a.opts.KpStep
		cand, res, err := a.try(ctx, kp)
		if err != nil {
			var verr *dynamo.ValidationError
			var perr *dynamo.InvalidPlantError
			switch {
			case errors.Is(err, dynamo.ErrCanceled):
				a.transition(log, session, Canceled)
				return session, err
			case errors.As(err, &verr), errors.As(err, &perr):
				return nil, err
			}
		}
		session.Candidates = append(session.Candidates, cand)
		log.V(logging.VERBOSE).Info("candidate", "kp", kp, "peaks", len(cand.Peaks), "decay", cand.Decay, "sustained", cand.Sustained, "error", cand.Err)

		if cand.Sustained {
			session.Ku = kp
			session.Tu = cand.Period
			session.Oscillation = res
			a.transition(log, session, OscillationFound)

			session.Suggestions = make(map[string]control.Gains, len(Rules))
			for name, rule := range Rules {
				session.Suggestions[name] = rule.Gains(session.Ku, session.Tu)
			}
			a.transition(log, session, Tuned)
			log.Info("tuning complete", "ku", session.Ku, "tu", session.Tu, "candidates", len(session.Candidates))
			return session, nil
		}
	}

	a.transition(log, session, Incomplete)
	log.Info("no sustained oscillation found", "kpMax", a.opts.KpMax)
	return session, fmt.Errorf("%w: no sustained oscillation up to kp=%v", ErrTuningIncomplete, a.opts.KpMax)
}

func (a *AutoTuner) transition(log logr.Logger, s *Session, to Status) {
	log.V(logging.DEBUG).Info("tuner state", "from", s.Status, "to", to)
	s.Status = to
	a.status = to
}

// try runs one candidate. A diverging run is recorded on the candidate and
// does not stop the sweep.
func (a *AutoTuner) try(ctx context.Context, kp float64) (Candidate, *sim.Result, error) {
	cand := Candidate{Kp: kp}

	res, err := sim.Simulate(ctx, a.candidateConfig(kp))
	if err != nil {
		cand.Err = err
		return cand, nil, err
	}

	w := laterHalf(res.Time, res.Output)
	if w.span < a.opts.MinSpan {
		cand.Err = ErrTuningIncomplete
		return cand, res, nil
	}

	cand.Peaks = DetectPeaks(w.times, w.values, w.baseline(a.opts.BaselineMargin))
	period, err := UltimatePeriod(cand.Peaks)
	if err != nil {
		cand.Err = err
		return cand, res, nil
	}
	cand.Period = period
	cand.Decay = w.decay(cand.Peaks)
	cand.Sustained = cand.Decay >= a.opts.SustainRatio
	return cand, res, nil
}
