package sim

import (
	"context"
	"strings"
	"testing"
)

const afgDescription = `
model: AFG3011
responses:
  "*IDN?": "TEKTRONIX,AFG3011,C000101,SCPI:99.0 FV:1.0"
  "*OPT?": "0"
properties:
  - name: frequency
    set: "SOURCE1:FREQUENCY:FIXED"
    query: "SOURCE1:FREQUENCY:FIXED?"
    min: 1.0e-6
    max: 10.0e+6
    default: "1.0e+6"
  - name: impedance
    set: "OUTPUT1:IMPEDANCE"
    valid: ["50", "INFINITY"]
`

func TestLoad(t *testing.T) {
	d, err := Load([]byte(afgDescription))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	resp, err := d.Query(context.Background(), "*IDN?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !strings.Contains(resp, "AFG3011") {
		t.Errorf("Query(*IDN?) = %q, want model in response", resp)
	}
}

func TestLoad_RejectsBadDescription(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "property without set command",
			yaml: "properties:\n  - name: broken\n",
		},
		{
			name: "inverted range",
			yaml: "properties:\n  - name: broken\n    set: \"CMD\"\n    min: 10.0\n    max: 1.0\n",
		},
		{
			name: "invalid yaml",
			yaml: "responses: [broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.yaml)); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestDevice_PropertyRoundTrip(t *testing.T) {
	d, err := Load([]byte(afgDescription))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ctx := context.Background()

	// Default before any set.
	got, err := d.Query(ctx, "SOURCE1:FREQUENCY:FIXED?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "1.0e+6" {
		t.Errorf("default = %q, want %q", got, "1.0e+6")
	}

	if err := d.Write(ctx, "SOURCE1:FREQUENCY:FIXED %g", 2.5e6); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err = d.Query(ctx, "SOURCE1:FREQUENCY:FIXED?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "2.5e+06" {
		t.Errorf("after set = %q, want %q", got, "2.5e+06")
	}
}

func TestDevice_RejectsOutOfSpecValues(t *testing.T) {
	d, err := Load([]byte(afgDescription))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ctx := context.Background()

	if err := d.Write(ctx, "SOURCE1:FREQUENCY:FIXED %g", 20e6); err == nil {
		t.Error("Write() above max expected error, got nil")
	}

	if err := d.Write(ctx, "OUTPUT1:IMPEDANCE 75"); err == nil {
		t.Error("Write() with invalid enum expected error, got nil")
	}

	if err := d.Write(ctx, "OUTPUT1:IMPEDANCE INFINITY"); err != nil {
		t.Errorf("Write() with valid enum error = %v", err)
	}
}

func TestDevice_CommandLog(t *testing.T) {
	d := New(Description{})
	ctx := context.Background()

	cmds := []string{"OUTPUT1:STATE 0", "SOURCE1:FUNCTION SIN", "OUTPUT1:STATE 1"}
	for _, cmd := range cmds {
		if err := d.Write(ctx, "%s", cmd); err != nil {
			t.Fatalf("Write(%q) error = %v", cmd, err)
		}
	}

	got := d.Commands()
	if len(got) != len(cmds) {
		t.Fatalf("Commands() = %d entries, want %d", len(got), len(cmds))
	}
	for i := range cmds {
		if got[i] != cmds[i] {
			t.Errorf("Commands()[%d] = %q, want %q", i, got[i], cmds[i])
		}
	}

	d.Reset()
	if len(d.Commands()) != 0 {
		t.Error("Reset() should clear the command log")
	}
}

func TestDevice_FailAfter(t *testing.T) {
	d := New(Description{})
	ctx := context.Background()

	d.FailAfter(2)

	if err := d.Write(ctx, "CMD 1"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := d.Write(ctx, "CMD 2"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := d.Write(ctx, "CMD 3"); err == nil {
		t.Error("Write() expected injected failure, got nil")
	}

	// Only the successful commands are logged.
	if got := len(d.Commands()); got != 2 {
		t.Errorf("Commands() = %d entries, want 2", got)
	}
}

func TestDevice_Closed(t *testing.T) {
	d := New(Description{})

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := d.Write(context.Background(), "CMD"); err == nil {
		t.Error("Write() after close expected error, got nil")
	}
	if _, err := d.Query(context.Background(), "CMD?"); err == nil {
		t.Error("Query() after close expected error, got nil")
	}
}
