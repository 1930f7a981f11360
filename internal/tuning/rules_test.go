package tuning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/loopsim/internal/control"
)

var _ = Describe("Rules", func() {
	const ku, tu = 10.0, 2.0

	DescribeTable("should map Ku and Tu to gains",
		func(name string, want control.Gains) {
			got, err := Apply(name, ku, tu)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Kp).To(BeNumerically("~", want.Kp, 1e-9))
			Expect(got.Ki).To(BeNumerically("~", want.Ki, 1e-9))
			Expect(got.Kd).To(BeNumerically("~", want.Kd, 1e-9))
		},
		Entry("ziegler-nichols", "ziegler-nichols", control.Gains{Kp: 6, Ki: 6, Kd: 1.5}),
		Entry("ziegler-nichols-pi", "ziegler-nichols-pi", control.Gains{Kp: 4.5, Ki: 2.7}),
		Entry("ziegler-nichols-p", "ziegler-nichols-p", control.Gains{Kp: 5}),
		Entry("cohen-coon", "cohen-coon", control.Gains{Kp: 9 / 1.35, Ki: 2.7, Kd: 5.4 / 1.35}),
		Entry("imc", "imc", control.Gains{Kp: 5, Ki: 2.5, Kd: 2.5}),
		Entry("some overshoot", "ziegler-nichols-some-overshoot", control.Gains{Kp: 3.33, Ki: 3.33, Kd: 2.22}),
		Entry("no overshoot", "ziegler-nichols-no-overshoot", control.Gains{Kp: 2, Ki: 2, Kd: 1.332}),
		Entry("tyreus-luyben", "tyreus-luyben", control.Gains{Kp: 4.545, Ki: 1.033, Kd: 1.442}),
	)

	It("should reject unknown names", func() {
		_, err := Apply("astrom", ku, tu)
		Expect(err).To(MatchError(ErrUnknownRule))
	})

	It("should list rules in order", func() {
		names := RuleNames()
		Expect(names).To(HaveLen(len(Rules)))
		Expect(names[0]).To(Equal("cohen-coon"))
	})
})
