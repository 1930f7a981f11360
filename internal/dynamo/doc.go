// Package dynamo provides the primitives shared by the closed-loop simulator.
//
// The package defines the small set of interfaces every layer agrees on:
//
//   - [State]: plant state vector
//   - [System]: continuous-time dynamics dX/dt = f(X, u, t) with scalar input
//   - [Integrator]: fixed-step numerical integrator
//   - [Controller]: stepwise feedback law mapping tracking error to control
//
// and the error taxonomy returned by the engine: [ValidationError] for bad
// configuration, [InvalidPlantError] for degenerate transfer functions and
// [ErrCanceled] for runs interrupted through their context.
//
// # Thread Safety
//
// None of the implementations keep package-level mutable state. Integrators
// keep scratch buffers and controllers keep their accumulators, so a single
// value must not be stepped from two goroutines at once.
package dynamo
