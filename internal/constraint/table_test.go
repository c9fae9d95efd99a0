package constraint

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/tekbench/tmcore/internal/profile"
	"github.com/tekbench/tmcore/internal/visa"
)

func testProfile(t *testing.T, model string, options ...string) *profile.Profile {
	t.Helper()

	p, err := profile.New(visa.Identification{
		Vendor:  "TEKTRONIX",
		Model:   model,
		Options: options,
	})
	if err != nil {
		t.Fatalf("profile.New(%s) error = %v", model, err)
	}
	return p
}

func mustTable(t *testing.T) *Table {
	t.Helper()

	table, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return table
}

func float(v float64) *float64 { return &v }

func TestDefault_LoadsEmbeddedData(t *testing.T) {
	table := mustTable(t)

	if len(table.Records()) == 0 {
		t.Fatal("expected embedded records, got none")
	}
}

// TestTableInvariants walks every embedded record and every resolvable
// combination and checks min <= max holds throughout.
func TestTableInvariants(t *testing.T) {
	table := mustTable(t)

	for _, rec := range table.Records() {
		for fn, b := range rec.Functions {
			if b.Min > b.Max {
				t.Errorf("%s %s: min %g > max %g", rec.Model, fn, b.Min, b.Max)
			}
		}
		if rec.Amplitude.Min > rec.Amplitude.Max {
			t.Errorf("%s amplitude: min %g > max %g", rec.Model, rec.Amplitude.Min, rec.Amplitude.Max)
		}
		if rec.Offset.Min > rec.Offset.Max {
			t.Errorf("%s offset: min %g > max %g", rec.Model, rec.Offset.Min, rec.Offset.Max)
		}

		p := testProfile(t, rec.Model)
		for _, termination := range []Termination{TerminationHighZ, TerminationFiftyOhm} {
			for fn := range rec.Functions {
				entry, err := table.Lookup(p, fn, LookupOptions{Termination: termination})
				if err != nil {
					t.Errorf("%s %s lookup: %v", rec.Model, fn, err)
					continue
				}
				if entry.Frequency.Min > entry.Frequency.Max {
					t.Errorf("%s %s frequency: min %g > max %g", rec.Model, fn, entry.Frequency.Min, entry.Frequency.Max)
				}
				if entry.Amplitude.Min > entry.Amplitude.Max {
					t.Errorf("%s %s amplitude: min %g > max %g", rec.Model, fn, entry.Amplitude.Min, entry.Amplitude.Max)
				}
				if entry.Offset.Min > entry.Offset.Max {
					t.Errorf("%s %s offset: min %g > max %g", rec.Model, fn, entry.Offset.Min, entry.Offset.Max)
				}
			}
		}
	}
}

func TestLookup_AFG3011Sine(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	entry, err := table.Lookup(p, FuncSine, LookupOptions{})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if entry.Frequency.Min != 1e-6 || entry.Frequency.Max != 10e6 {
		t.Errorf("frequency = %+v, want [1e-6, 1e7]", entry.Frequency)
	}
	if entry.Amplitude.Min != 0.04 || entry.Amplitude.Max != 40.0 {
		t.Errorf("amplitude = %+v, want [0.04, 40]", entry.Amplitude)
	}
	if entry.Offset.Min != -20.0 || entry.Offset.Max != 20.0 {
		t.Errorf("offset = %+v, want [-20, 20]", entry.Offset)
	}
}

func TestLookup_TerminationHalvesSwing(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3011")

	entry, err := table.Lookup(p, FuncSine, LookupOptions{Termination: TerminationFiftyOhm})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if entry.Amplitude.Min != 0.02 || entry.Amplitude.Max != 20.0 {
		t.Errorf("amplitude = %+v, want [0.02, 20]", entry.Amplitude)
	}
	if entry.Offset.Min != -10.0 || entry.Offset.Max != 10.0 {
		t.Errorf("offset = %+v, want [-10, 10]", entry.Offset)
	}
}

func TestLookup_CeilingSelection(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3151C")

	tests := []struct {
		name    string
		freq    *float64
		wantMax float64
	}{
		{
			name:    "no hint applies lowest ceiling",
			freq:    nil,
			wantMax: 16.0,
		},
		{
			name:    "below threshold keeps full swing",
			freq:    float(50e6),
			wantMax: 20.0,
		},
		{
			name:    "at threshold keeps full swing",
			freq:    float(100e6),
			wantMax: 20.0,
		},
		{
			name:    "above threshold derates",
			freq:    float(150e6),
			wantMax: 16.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := table.Lookup(p, FuncSine, LookupOptions{Frequency: tt.freq})
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if entry.Amplitude.Max != tt.wantMax {
				t.Errorf("amplitude max = %g, want %g", entry.Amplitude.Max, tt.wantMax)
			}
		})
	}
}

func TestLookup_SteppedCeilings(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG31101")

	tests := []struct {
		freq    float64
		wantMax float64
	}{
		{freq: 50e6, wantMax: 20.0},
		{freq: 70e6, wantMax: 16.0},
		{freq: 90e6, wantMax: 12.0},
	}

	for _, tt := range tests {
		entry, err := table.Lookup(p, FuncSine, LookupOptions{Frequency: float(tt.freq)})
		if err != nil {
			t.Fatalf("Lookup(%g) error = %v", tt.freq, err)
		}
		if entry.Amplitude.Max != tt.wantMax {
			t.Errorf("amplitude max at %g Hz = %g, want %g", tt.freq, entry.Amplitude.Max, tt.wantMax)
		}
	}

	// No hint selects the lowest step.
	entry, err := table.Lookup(p, FuncSine, LookupOptions{})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if entry.Amplitude.Max != 12.0 {
		t.Errorf("amplitude max without hint = %g, want 12", entry.Amplitude.Max)
	}
}

func TestLookup_ScopeRevisionDoublesFrequency(t *testing.T) {
	table := mustTable(t)

	base, err := table.Lookup(testProfile(t, "MSO58"), FuncSine, LookupOptions{})
	if err != nil {
		t.Fatalf("Lookup(MSO58) error = %v", err)
	}
	if base.Frequency.Max != 50e6 {
		t.Errorf("MSO58 sine max = %g, want 5e7", base.Frequency.Max)
	}

	rev, err := table.Lookup(testProfile(t, "MSO58B"), FuncSine, LookupOptions{})
	if err != nil {
		t.Fatalf("Lookup(MSO58B) error = %v", err)
	}
	if rev.Frequency.Max != 100e6 {
		t.Errorf("MSO58B sine max = %g, want 1e8", rev.Frequency.Max)
	}

	// MSO64B resolves through the alias pattern on the B record.
	alias, err := table.Lookup(testProfile(t, "MSO64B"), FuncSine, LookupOptions{})
	if err != nil {
		t.Fatalf("Lookup(MSO64B) error = %v", err)
	}
	if alias.Frequency.Max != 100e6 {
		t.Errorf("MSO64B sine max = %g, want 1e8", alias.Frequency.Max)
	}
}

func TestLookup_DirectPathZeroesOffset(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AWG5012C")

	entry, err := table.Lookup(p, FuncSine, LookupOptions{Path: profile.PathDirect})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if entry.Offset.Min != 0 || entry.Offset.Max != 0 {
		t.Errorf("DIR offset = %+v, want [0, 0]", entry.Offset)
	}

	entry, err = table.Lookup(p, FuncSine, LookupOptions{Path: profile.PathDCAmplified})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if entry.Offset.Min != -2.25 || entry.Offset.Max != 2.25 {
		t.Errorf("DCA offset = %+v, want [-2.25, 2.25]", entry.Offset)
	}
}

func TestLookup_UnknownPath(t *testing.T) {
	table := mustTable(t)

	_, err := table.Lookup(testProfile(t, "AWG5012C"), FuncSine, LookupOptions{Path: "DCHB"})
	if !errors.Is(err, ErrUnsupportedPath) {
		t.Errorf("Lookup() error = %v, want ErrUnsupportedPath", err)
	}

	// AFG records have no paths at all.
	_, err = table.Lookup(testProfile(t, "AFG3011"), FuncSine, LookupOptions{Path: "DIR"})
	if !errors.Is(err, ErrUnsupportedPath) {
		t.Errorf("Lookup() error = %v, want ErrUnsupportedPath", err)
	}
}

func TestLookup_OptionNarrowsAmplitude(t *testing.T) {
	table := mustTable(t)

	plain, err := table.Lookup(testProfile(t, "AWG7102"), FuncSine, LookupOptions{Path: profile.PathDCAmplified})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if plain.Amplitude.Min != 0.05 || plain.Amplitude.Max != 2.0 {
		t.Errorf("amplitude = %+v, want [0.05, 2]", plain.Amplitude)
	}

	opt, err := table.Lookup(testProfile(t, "AWG7102", "02"), FuncSine, LookupOptions{Path: profile.PathDirect})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if opt.Amplitude.Min != 0.5 || opt.Amplitude.Max != 1.0 {
		t.Errorf("option 02 amplitude = %+v, want [0.5, 1]", opt.Amplitude)
	}
	if opt.Offset.Min != 0 || opt.Offset.Max != 0 {
		t.Errorf("option 02 offset = %+v, want [0, 0]", opt.Offset)
	}
}

func TestLookup_AWG5200Paths(t *testing.T) {
	table := mustTable(t)

	tests := []struct {
		name    string
		options []string
		path    string
		wantMin float64
		wantMax float64
	}{
		{
			name:    "high bandwidth path without DC option",
			path:    profile.PathDCHighBW,
			wantMin: 0.025,
			wantMax: 0.75,
		},
		{
			name:    "high bandwidth path with DC option",
			options: []string{"DC"},
			path:    profile.PathDCHighBW,
			wantMin: 0.025,
			wantMax: 1.5,
		},
		{
			name:    "high voltage path",
			path:    profile.PathDCHighVoltage,
			wantMin: 0.01,
			wantMax: 5.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProfile(t, "AWG5204", tt.options...)
			entry, err := table.Lookup(p, FuncSine, LookupOptions{Path: tt.path})
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if entry.Amplitude.Min != tt.wantMin || entry.Amplitude.Max != tt.wantMax {
				t.Errorf("amplitude = %+v, want [%g, %g]", entry.Amplitude, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestLookup_SampleRateDerivesFrequency(t *testing.T) {
	table := mustTable(t)

	// 2.5 GS/s base: sine max = rate / 10 samples.
	base, err := table.Lookup(testProfile(t, "AWG5204"), FuncSine, LookupOptions{Path: profile.PathDCHighBW})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if base.Frequency.Max != 2.5e9/10 {
		t.Errorf("sine max = %g, want %g", base.Frequency.Max, 2.5e9/10)
	}

	// Option 50 doubles the rate and with it every derived bound.
	fast, err := table.Lookup(testProfile(t, "AWG5204", "50"), FuncSine, LookupOptions{Path: profile.PathDCHighBW})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if fast.Frequency.Max != 5.0e9/10 {
		t.Errorf("sine max with option 50 = %g, want %g", fast.Frequency.Max, 5.0e9/10)
	}

	// Clock has a fixed record length.
	clock, err := table.Lookup(testProfile(t, "AWG5204"), FuncClock, LookupOptions{Path: profile.PathDCHighBW})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if clock.Frequency.Max != 2.5e9/960 {
		t.Errorf("clock max = %g, want %g", clock.Frequency.Max, 2.5e9/960)
	}
}

func TestLookup_UnsupportedFunction(t *testing.T) {
	table := mustTable(t)

	// Pulse is not derivable from a record length on the AWGs.
	_, err := table.Lookup(testProfile(t, "AWG5012C"), FuncPulse, LookupOptions{})
	if !errors.Is(err, ErrUnsupportedFunction) {
		t.Errorf("Lookup() error = %v, want ErrUnsupportedFunction", err)
	}
}

func TestLookup_UnknownModel(t *testing.T) {
	table := mustTable(t)

	// AWG5102 parses to a valid family but has no record.
	_, err := table.Lookup(testProfile(t, "AWG5102"), FuncSine, LookupOptions{})
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("Lookup() error = %v, want ErrUnknownModel", err)
	}
}

func TestLookup_Idempotent(t *testing.T) {
	table := mustTable(t)
	p := testProfile(t, "AFG3251")
	opts := LookupOptions{Termination: TerminationFiftyOhm, Frequency: float(220e6)}

	first, err := table.Lookup(p, FuncSine, opts)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	second, err := table.Lookup(p, FuncSine, opts)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if first != second {
		t.Errorf("repeated lookup differs: %+v vs %+v", first, second)
	}
}

func TestLoad_RejectsMalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing model",
			yaml: `
- family: AFG3K
  amplitude: { min: 0.1, max: 1.0 }
  offset: { min: -1.0, max: 1.0 }
  functions:
    sine: { min: 1.0, max: 10.0 }
`,
		},
		{
			name: "inverted bounds",
			yaml: `
- model: TEST1
  family: AFG3K
  amplitude: { min: 2.0, max: 1.0 }
  offset: { min: -1.0, max: 1.0 }
  functions:
    sine: { min: 1.0, max: 10.0 }
`,
		},
		{
			name: "no functions and no sample rate",
			yaml: `
- model: TEST2
  family: AFG3K
  amplitude: { min: 0.1, max: 1.0 }
  offset: { min: -1.0, max: 1.0 }
`,
		},
		{
			name: "ceiling above base max",
			yaml: `
- model: TEST3
  family: AFG3K
  amplitude: { min: 0.1, max: 1.0 }
  amplitude_ceilings:
    - { above: 100.0, max: 2.0 }
  offset: { min: -1.0, max: 1.0 }
  functions:
    sine: { min: 1.0, max: 10.0 }
`,
		},
		{
			name: "bad alias regexp",
			yaml: `
- model: TEST4
  match: "^TEST4[$"
  family: AFG3K
  amplitude: { min: 0.1, max: 1.0 }
  offset: { min: -1.0, max: 1.0 }
  functions:
    sine: { min: 1.0, max: 10.0 }
`,
		},
		{
			name: "duplicate model",
			yaml: `
- model: TEST5
  family: AFG3K
  amplitude: { min: 0.1, max: 1.0 }
  offset: { min: -1.0, max: 1.0 }
  functions:
    sine: { min: 1.0, max: 10.0 }
- model: TEST5
  family: AFG3K
  amplitude: { min: 0.1, max: 1.0 }
  offset: { min: -1.0, max: 1.0 }
  functions:
    sine: { min: 1.0, max: 10.0 }
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"data/test.yaml": &fstest.MapFile{Data: []byte(tt.yaml)},
			}
			if _, err := Load(fsys); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}
