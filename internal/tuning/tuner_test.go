package tuning

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/loopsim/internal/control"
	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/logging"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/plant"
	"github.com/san-kum/loopsim/internal/sim"
)

func thirdOrder() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Plant = plant.TransferFunction{Numerator: []float64{1}, Denominator: []float64{1, 3, 3, 1}}
	cfg.Duration = 40
	return cfg
}

var _ = Describe("AutoTuner", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = logging.NewTestLoggerIntoContext(context.Background())
	})

	Describe("on a third-order lag", Ordered, func() {
		var (
			session *Session
			tuner   *AutoTuner
		)

		BeforeAll(func() {
			var err error
			tuner = New(thirdOrder(), DefaultOptions())
			Expect(tuner.Status()).To(Equal(Idle))

			session, err = tuner.Tune(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should find the ultimate gain and period", func() {
			// (s+1)^3 + K has imaginary roots at K=8, w=sqrt(3).
			Expect(session.Status).To(Equal(Tuned))
			Expect(tuner.Status()).To(Equal(Tuned))
			Expect(session.Ku).To(BeNumerically("~", 8, 0.5))
			Expect(session.Tu).To(BeNumerically("~", 2*math.Pi/math.Sqrt(3), 0.1))
			Expect(session.Oscillation).NotTo(BeNil())
		})

		It("should record every candidate up to Ku", func() {
			Expect(session.Candidates).NotTo(BeEmpty())
			last := session.Candidates[len(session.Candidates)-1]
			Expect(last.Sustained).To(BeTrue())
			Expect(last.Kp).To(Equal(session.Ku))
			for _, c := range session.Candidates[:len(session.Candidates)-1] {
				Expect(c.Sustained).To(BeFalse(), "kp=%v", c.Kp)
			}
		})

		It("should suggest gains for every rule", func() {
			for _, name := range RuleNames() {
				want, err := Apply(name, session.Ku, session.Tu)
				Expect(err).NotTo(HaveOccurred())

				got, err := session.Suggest(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			}

			zn, _ := session.Suggest("ziegler-nichols")
			Expect(zn.Kp).To(BeNumerically("~", 0.6*session.Ku, 1e-12))
		})

		It("should reject unknown rules", func() {
			_, err := session.Suggest("lambda")
			Expect(err).To(MatchError(ErrUnknownRule))
		})

		It("should evaluate every suggestion as a stable loop", func() {
			base := thirdOrder()
			evals, err := Evaluate(ctx, session, base, metrics.DefaultOptions(), 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(evals).To(HaveLen(len(Rules)))

			for _, e := range evals {
				Expect(e.Report.SteadyStateError.Valid).To(BeTrue(), e.Rule)
				Expect(math.Abs(e.Report.SteadyStateError.V)).To(BeNumerically("<", 0.25), e.Rule)
			}
		})
	})

	It("should end incomplete when the loop never oscillates", func() {
		cfg := sim.DefaultConfig()
		cfg.Plant = plant.TransferFunction{Numerator: []float64{1}, Denominator: []float64{1, 1}}
		opts := DefaultOptions()
		opts.KpMax = 5

		session, err := New(cfg, opts).Tune(ctx)
		Expect(err).To(MatchError(ErrTuningIncomplete))
		Expect(session.Status).To(Equal(Incomplete))
		Expect(session.Candidates).To(HaveLen(10))

		_, err = session.Suggest("ziegler-nichols")
		Expect(err).To(MatchError(ErrTuningIncomplete))

		_, err = Evaluate(ctx, session, cfg, metrics.DefaultOptions(), 1)
		Expect(err).To(MatchError(ErrTuningIncomplete))
	})

	It("should stop when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		session, err := New(thirdOrder(), DefaultOptions()).Tune(canceled)
		Expect(err).To(MatchError(dynamo.ErrCanceled))
		Expect(session.Status).To(Equal(Canceled))
	})

	It("should not touch the caller's config", func() {
		cfg := thirdOrder()
		cfg.Gains = control.Gains{Kp: 1, Ki: 2, Kd: 3}
		before := cfg.Clone()

		opts := DefaultOptions()
		opts.KpMax = 1
		_, _ = New(cfg, opts).Tune(ctx)

		Expect(cfg).To(Equal(before))
	})

	DescribeTable("should validate options",
		func(mutate func(*Options)) {
			opts := DefaultOptions()
			mutate(&opts)

			_, err := New(thirdOrder(), opts).Tune(ctx)
			var verr *dynamo.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
		},
		Entry("zero step", func(o *Options) { o.KpStep = 0 }),
		Entry("inverted range", func(o *Options) { o.KpStart, o.KpMax = 5, 1 }),
		Entry("zero start", func(o *Options) { o.KpStart = 0 }),
		Entry("NaN ratio", func(o *Options) { o.SustainRatio = math.NaN() }),
		Entry("negative duration", func(o *Options) { o.Duration = -1 }),
	)

	It("should surface plant errors", func() {
		cfg := sim.DefaultConfig()
		cfg.Plant.Denominator = []float64{0, 1}

		session, err := New(cfg, DefaultOptions()).Tune(ctx)
		Expect(session).To(BeNil())
		var perr *dynamo.InvalidPlantError
		Expect(err).To(BeAssignableToTypeOf(perr))
	})
})
