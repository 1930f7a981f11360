// Package metrics computes step-response figures of merit from a finished
// run: overshoot, rise, peak and settling time, steady-state error, and the
// integral error criteria.
package metrics
