// Package control provides the PID feedback law used by the simulator.
//
// [PID] implements [dynamo.Controller]: each call to Compute consumes the
// tracking error of one fixed step and returns the control value. The
// integral, previous error and filtered derivative live inside the value, so
// every run constructs its own PID.
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 2, Ki: 1}, 0.01, control.Options{
//	    AntiWindup: control.AntiWindup{Mode: control.Clamping, Min: -10, Max: 10},
//	})
//	u := pid.Compute(reference - output)
//
// [Gains] implements [dynamo.Configurable] over the keys kp, ki and kd, and
// PID inherits it for live retuning.
package control
