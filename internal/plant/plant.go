// Package plant turns transfer functions into state-space models.
package plant

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/loopsim/internal/dynamo"
)

// TransferFunction holds polynomial coefficients in s, highest order first.
type TransferFunction struct {
	Numerator   []float64 `json:"numerator" yaml:"numerator"`
	Denominator []float64 `json:"denominator" yaml:"denominator"`
}

func (tf TransferFunction) Validate() error {
	if len(tf.Denominator) == 0 {
		return &dynamo.InvalidPlantError{Reason: "denominator is empty"}
	}
	if tf.Denominator[0] == 0 {
		return &dynamo.InvalidPlantError{Reason: "leading denominator coefficient is zero"}
	}
	if !dynamo.Finite(tf.Denominator...) {
		return &dynamo.InvalidPlantError{Reason: "denominator has non-finite coefficients"}
	}
	if !dynamo.Finite(tf.Numerator...) {
		return &dynamo.InvalidPlantError{Reason: "numerator has non-finite coefficients"}
	}
	return nil
}

// Order is the degree of the denominator.
func (tf TransferFunction) Order() int {
	return len(tf.Denominator) - 1
}

func (tf TransferFunction) String() string {
	return fmt.Sprintf("%v / %v", tf.Numerator, tf.Denominator)
}

// StateSpace is a controllable canonical realization
//
//	x' = A x + B u
//	y  = C x + D u
//
// Built once per run and never mutated afterwards.
type StateSpace struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64

	n int
}

// New realizes tf in companion form. A carries ones on its superdiagonal and
// the negated normalized denominator (lowest order first) in its bottom row,
// B is the last unit vector, and C, D come from the left-padded numerator.
func New(tf TransferFunction) (*StateSpace, error) {
	if err := tf.Validate(); err != nil {
		return nil, err
	}

	lead := tf.Denominator[0]
	den := make([]float64, len(tf.Denominator))
	for i, v := range tf.Denominator {
		den[i] = v / lead
	}
	n := len(den) - 1

	// Only the trailing n+1 coefficients of an improper numerator fit.
	padded := make([]float64, n+1)
	num := tf.Numerator
	if len(num) > n+1 {
		num = num[len(num)-(n+1):]
	}
	offset := n + 1 - len(num)
	for i, v := range num {
		padded[offset+i] = v / lead
	}

	ss := &StateSpace{D: padded[0], n: n}
	if n == 0 {
		return ss, nil
	}

	ss.A = mat.NewDense(n, n, nil)
	for i := 0; i < n-1; i++ {
		ss.A.Set(i, i+1, 1)
	}
	for i := 0; i < n; i++ {
		ss.A.Set(n-1, i, -den[n-i])
	}

	ss.B = mat.NewVecDense(n, nil)
	ss.B.SetVec(n-1, 1)

	ss.C = mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ss.C.SetVec(i, padded[n-i]-ss.D*den[n-i])
	}

	return ss, nil
}

func (s *StateSpace) StateDim() int { return s.n }

// Derive returns A·x + B·u.
func (s *StateSpace) Derive(x dynamo.State, u float64, t float64) dynamo.State {
	dx := make(dynamo.State, s.n)
	if s.n == 0 {
		return dx
	}
	out := mat.NewVecDense(s.n, dx)
	out.MulVec(s.A, mat.NewVecDense(s.n, x))
	out.AddScaledVec(out, u, s.B)
	return dx
}

// Output returns C·x + D·u.
func (s *StateSpace) Output(x dynamo.State, u float64) float64 {
	y := s.D * u
	if s.n == 0 {
		return y
	}
	return y + mat.Dot(s.C, mat.NewVecDense(s.n, x))
}

// DCGain is the static gain G(0), or ±Inf for plants with a pole at the origin.
func (tf TransferFunction) DCGain() float64 {
	num := 0.0
	if len(tf.Numerator) > 0 {
		num = tf.Numerator[len(tf.Numerator)-1]
	}
	den := tf.Denominator[len(tf.Denominator)-1]
	return num / den
}

var _ dynamo.Observable = (*StateSpace)(nil)
