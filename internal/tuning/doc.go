// Package tuning finds the ultimate gain and period of a loop by sweeping a
// proportional-only controller upward until the output oscillates without
// decaying, then maps (Ku, Tu) to PID gains with the Ziegler-Nichols family
// of rules.
package tuning
