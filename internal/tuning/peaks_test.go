package tuning

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func sampled(from, to, step float64, f func(float64) float64) ([]float64, []float64) {
	var times, values []float64
	for i := 0; float64(i)*step <= to-from+1e-9; i++ {
		t := from + float64(i)*step
		times = append(times, t)
		values = append(values, f(t))
	}
	return times, values
}

var _ = Describe("Peak detection", func() {
	It("should find four peaks two seconds apart on sin(pi t)", func() {
		times, values := sampled(0, 8, 0.01, func(t float64) float64 { return math.Sin(math.Pi * t) })

		peaks := DetectPeaks(times, values, 0)
		Expect(peaks).To(HaveLen(4))
		Expect(peaks[0].Time).To(BeNumerically("~", 0.5, 1e-9))

		tu, err := UltimatePeriod(peaks)
		Expect(err).NotTo(HaveOccurred())
		Expect(tu).To(BeNumerically("~", 2.0, 1e-9))
	})

	It("should ignore maxima below the baseline", func() {
		times := []float64{0, 1, 2, 3, 4, 5, 6}
		values := []float64{0, 1, 0, 0.2, 0, 1, 0}

		peaks := DetectPeaks(times, values, 0.5)
		Expect(peaks).To(Equal([]Peak{{Time: 1, Value: 1}, {Time: 5, Value: 1}}))
	})

	It("should report the first sample of a plateau once", func() {
		times := []float64{0, 1, 2, 3, 4}
		values := []float64{0, 1, 1, 1, 0}

		Expect(DetectPeaks(times, values, 0)).To(Equal([]Peak{{Time: 1, Value: 1}}))
	})

	It("should not count a rising shoulder", func() {
		times := []float64{0, 1, 2, 3, 4, 5, 6}
		values := []float64{0, 1, 1, 2, 0, 2, 0}

		Expect(DetectPeaks(times, values, 0)).To(Equal([]Peak{{Time: 3, Value: 2}, {Time: 5, Value: 2}}))
	})

	It("should report a two-sample plateau once", func() {
		Expect(DetectPeaks([]float64{0, 1, 2, 3}, []float64{0, 2, 2, 0}, 0)).To(Equal([]Peak{{Time: 1, Value: 2}}))
	})

	It("should not count a plateau that runs to the end", func() {
		Expect(DetectPeaks([]float64{0, 1, 2, 3}, []float64{0, 1, 1, 1}, 0)).To(BeEmpty())
	})

	It("should not count endpoints", func() {
		Expect(DetectPeaks([]float64{0, 1, 2}, []float64{3, 1, 2}, 0)).To(BeEmpty())
		Expect(DetectPeaks(nil, nil, 0)).To(BeEmpty())
	})

	It("should need at least two peaks for a period", func() {
		_, err := UltimatePeriod([]Peak{{Time: 1, Value: 1}})
		Expect(err).To(MatchError(ErrTuningIncomplete))

		_, err = UltimatePeriod(nil)
		Expect(err).To(MatchError(ErrTuningIncomplete))
	})

	Describe("window", func() {
		It("should measure decay against the window mean", func() {
			times, values := sampled(0, 20, 0.01, func(t float64) float64 {
				return 1 + math.Exp(-0.2*t)*math.Sin(math.Pi*t)
			})
			w := laterHalf(times, values)
			peaks := DetectPeaks(w.times, w.values, w.baseline(0.1))

			Expect(len(peaks)).To(BeNumerically(">=", 2))
			Expect(w.decay(peaks)).To(BeNumerically("<", 0.9))
		})

		It("should see a constant amplitude as sustained", func() {
			times, values := sampled(0, 20, 0.01, func(t float64) float64 {
				return 0.5 + 0.3*math.Sin(math.Pi*t)
			})
			w := laterHalf(times, values)
			peaks := DetectPeaks(w.times, w.values, w.baseline(0.1))

			Expect(w.decay(peaks)).To(BeNumerically("~", 1, 1e-3))
			Expect(w.span).To(BeNumerically("~", 0.6, 1e-3))
		})
	})
})
