package integrators

import "github.com/san-kum/loopsim/internal/dynamo"

// Euler is the explicit first-order method, kept for comparing against RK4.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u float64, t float64, dt float64) dynamo.State {
	return x.Add(dyn.Derive(x, u, t).Scale(dt))
}
