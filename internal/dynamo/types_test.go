package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Add(a.Scale(-1))
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Add of negated state failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	if n := (State{3, 4}).Norm(); math.Abs(n-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", n)
	}
}

func TestState_CloneIsIndependent(t *testing.T) {
	src := State{1, 2}
	c := src.Clone()
	c[0] = 99
	if src[0] != 1 {
		t.Error("Clone shares backing array")
	}
}

func TestFinite(t *testing.T) {
	if !Finite(0, -1, 1e300) {
		t.Error("expected finite values to pass")
	}
	if Finite(1, math.NaN()) {
		t.Error("expected NaN to fail")
	}
	if Finite(math.Inf(-1)) {
		t.Error("expected -Inf to fail")
	}
}

func TestErrors(t *testing.T) {
	err := Invalid("dt", "must be positive, got %g", -0.1)
	want := "dynamo: invalid dt: must be positive, got -0.1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var verr *ValidationError
	if !errors.As(error(err), &verr) || verr.Field != "dt" {
		t.Error("errors.As did not recover the ValidationError")
	}

	canceled := Canceled(context.Canceled)
	if !errors.Is(canceled, ErrCanceled) || !errors.Is(canceled, context.Canceled) {
		t.Errorf("Canceled() lost a cause: %v", canceled)
	}
}

func TestStepError(t *testing.T) {
	err := &StepError{Step: 150, Time: 1.5, Wrapped: ErrUnstable}
	want := "step 150 (t=1.5000): dynamo: simulation unstable (state diverged)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrUnstable) {
		t.Error("StepError does not unwrap to its cause")
	}
}
