package signal

import "math/rand"

// Source yields uniform samples in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Uniform is additive output noise drawn uniformly from [-Amplitude, +Amplitude].
type Uniform struct {
	Amplitude float64
	src       Source
}

func NewUniform(amplitude float64, src Source) *Uniform {
	return &Uniform{Amplitude: amplitude, src: src}
}

// NewSeeded uses a private math/rand generator so runs with equal seeds
// draw identical sequences.
func NewSeeded(amplitude float64, seed int64) *Uniform {
	return NewUniform(amplitude, rand.New(rand.NewSource(seed)))
}

// Sample never touches the source when the amplitude is zero.
func (u *Uniform) Sample() float64 {
	if u == nil || u.Amplitude == 0 || u.src == nil {
		return 0
	}
	return u.Amplitude * (2*u.src.Float64() - 1)
}
