package tuning

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrTuningIncomplete means too few oscillation peaks were seen to estimate
// the ultimate period.
var ErrTuningIncomplete = errors.New("tuning: incomplete, fewer than two oscillation peaks")

type Peak struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// DetectPeaks returns the local maxima of values above baseline. On a
// plateau the first sample is reported, and only if the plateau is followed
// by a lower sample.
func DetectPeaks(times, values []float64, baseline float64) []Peak {
	var peaks []Peak
	for i := 1; i < len(values)-1; i++ {
		v := values[i]
		if v <= values[i-1] || v <= baseline {
			continue
		}
		j := i + 1
		for j < len(values) && values[j] == v {
			j++
		}
		if j < len(values) && values[j] < v {
			peaks = append(peaks, Peak{Time: times[i], Value: v})
		}
	}
	return peaks
}

// UltimatePeriod is the mean spacing of consecutive peaks.
func UltimatePeriod(peaks []Peak) (float64, error) {
	if len(peaks) < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrTuningIncomplete, len(peaks))
	}
	spacing := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		spacing[i-1] = peaks[i].Time - peaks[i-1].Time
	}
	return stat.Mean(spacing, nil), nil
}

// window summarizes the later half of a run, where the start-up transient
// has mostly died out.
type window struct {
	times  []float64
	values []float64
	mean   float64
	span   float64
}

func laterHalf(times, values []float64) window {
	start := len(values) / 2
	w := window{times: times[start:], values: values[start:]}
	if len(w.values) == 0 {
		return w
	}
	w.mean = stat.Mean(w.values, nil)
	w.span = floats.Max(w.values) - floats.Min(w.values)
	return w
}

// baseline is the threshold a local maximum must exceed to count as an
// oscillation peak.
func (w window) baseline(margin float64) float64 {
	return w.mean + margin*w.span
}

// decay is the ratio of the last to the first peak excursion above the mean.
// Values near one mean sustained oscillation, below one decaying.
func (w window) decay(peaks []Peak) float64 {
	if len(peaks) < 2 {
		return 0
	}
	first := peaks[0].Value - w.mean
	if first <= 0 {
		return 0
	}
	return (peaks[len(peaks)-1].Value - w.mean) / first
}
