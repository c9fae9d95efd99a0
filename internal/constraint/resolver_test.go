package constraint

import (
	"errors"
	"testing"

	"github.com/tekbench/tmcore/internal/profile"
)

func TestResolve_ValidRequest(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	entry, err := Resolve(table, p, Request{
		Function:  FuncSine,
		Frequency: float(10e6),
		Amplitude: float(40.0),
		Offset:    float(-20.0),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Boundary values are valid: membership is inclusive.
	if entry.Amplitude.Max != 40.0 {
		t.Errorf("amplitude max = %g, want 40", entry.Amplitude.Max)
	}
}

func TestResolve_AmplitudeViolation(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	_, err := Resolve(table, p, Request{
		Function:  FuncSine,
		Frequency: float(10e6),
		Amplitude: float(45.0),
	})

	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("Resolve() error = %v, want *Violation", err)
	}
	if v.Field != "amplitude" {
		t.Errorf("Violation.Field = %q, want %q", v.Field, "amplitude")
	}
	if v.Value != 45.0 {
		t.Errorf("Violation.Value = %g, want 45", v.Value)
	}
	if v.Allowed.Max != 40.0 {
		t.Errorf("Violation.Allowed.Max = %g, want 40", v.Allowed.Max)
	}
}

func TestResolve_FirstViolationWins(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	// Both frequency and amplitude are out of range; frequency is
	// checked first.
	_, err := Resolve(table, p, Request{
		Function:  FuncSine,
		Frequency: float(20e6),
		Amplitude: float(45.0),
	})

	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("Resolve() error = %v, want *Violation", err)
	}
	if v.Field != "frequency" {
		t.Errorf("Violation.Field = %q, want %q", v.Field, "frequency")
	}
}

func TestResolve_OneUnitOutside(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	tests := []struct {
		name      string
		req       Request
		wantField string
	}{
		{
			name: "frequency just above max",
			req: Request{
				Function:  FuncSine,
				Frequency: float(10e6 + 1),
			},
			wantField: "frequency",
		},
		{
			name: "amplitude just below min",
			req: Request{
				Function:  FuncSine,
				Amplitude: float(0.039),
			},
			wantField: "amplitude",
		},
		{
			name: "offset just above max",
			req: Request{
				Function: FuncSine,
				Offset:   float(20.001),
			},
			wantField: "offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(table, p, tt.req)

			var v *Violation
			if !errors.As(err, &v) {
				t.Fatalf("Resolve() error = %v, want *Violation", err)
			}
			if v.Field != tt.wantField {
				t.Errorf("Violation.Field = %q, want %q", v.Field, tt.wantField)
			}
		})
	}
}

func TestResolve_OmittedFieldsUnchecked(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	// Only the function is given; nothing can violate.
	if _, err := Resolve(table, p, Request{Function: FuncSine}); err != nil {
		t.Errorf("Resolve() error = %v, want nil", err)
	}
}

func TestResolve_TerminationScalesBeforeCheck(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	// 30 V is fine into high impedance but exceeds the 20 V limit
	// into 50 ohm.
	req := Request{
		Function:  FuncSine,
		Amplitude: float(30.0),
	}

	if _, err := Resolve(table, p, req); err != nil {
		t.Errorf("Resolve() high impedance error = %v, want nil", err)
	}

	req.Termination = TerminationFiftyOhm
	var v *Violation
	if _, err := Resolve(table, p, req); !errors.As(err, &v) {
		t.Errorf("Resolve() into 50 ohm error = %v, want *Violation", err)
	}
}

func TestResolve_DirectPathRejectsOffset(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AWG5012C")

	_, err := Resolve(table, p, Request{
		Function:  FuncSine,
		Amplitude: float(1.0),
		Offset:    float(0.1),
		Path:      profile.PathDirect,
	})

	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("Resolve() error = %v, want *Violation", err)
	}
	if v.Field != "offset" {
		t.Errorf("Violation.Field = %q, want %q", v.Field, "offset")
	}
	if v.Allowed.Min != 0 || v.Allowed.Max != 0 {
		t.Errorf("Violation.Allowed = %+v, want [0, 0]", v.Allowed)
	}

	// Exactly zero is allowed on the direct path.
	_, err = Resolve(table, p, Request{
		Function:  FuncSine,
		Amplitude: float(1.0),
		Offset:    float(0.0),
		Path:      profile.PathDirect,
	})
	if err != nil {
		t.Errorf("Resolve() with zero offset error = %v, want nil", err)
	}
}

func TestResolve_DutyCycleAndSymmetry(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "MSO58")

	_, err := Resolve(table, p, Request{
		Function:  FuncPulse,
		DutyCycle: float(95.0),
	})

	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("Resolve() error = %v, want *Violation", err)
	}
	if v.Field != "duty cycle" {
		t.Errorf("Violation.Field = %q, want %q", v.Field, "duty cycle")
	}

	if _, err := Resolve(table, p, Request{Function: FuncRamp, Symmetry: float(50.0)}); err != nil {
		t.Errorf("Resolve() error = %v, want nil", err)
	}
}

func TestResolve_UnsupportedFunction(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AWG5204")

	_, err := Resolve(table, p, Request{Function: FuncNoise, Path: profile.PathDCHighBW})
	if !errors.Is(err, ErrUnsupportedFunction) {
		t.Errorf("Resolve() error = %v, want ErrUnsupportedFunction", err)
	}
}
