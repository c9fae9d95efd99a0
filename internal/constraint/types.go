package constraint

// Function identifies a waveform shape. Not every function is valid
// for every model; the table is authoritative.
type Function string

// Waveform functions.
const (
	FuncSine      Function = "sine"
	FuncSquare    Function = "square"
	FuncRamp      Function = "ramp"
	FuncPulse     Function = "pulse"
	FuncTriangle  Function = "triangle"
	FuncNoise     Function = "noise"
	FuncDC        Function = "dc"
	FuncSinc      Function = "sinc"
	FuncArbitrary Function = "arbitrary"
	FuncClock     Function = "clock"
)

// Termination is the load impedance the instrument drives.
type Termination string

// Termination settings. High impedance is the default when a request
// leaves the field empty.
const (
	TerminationHighZ    Termination = "HIGHZ"
	TerminationFiftyOhm Termination = "FIFTY"
)

// Bounds is an inclusive numeric range. Min <= Max is enforced when
// the table is loaded.
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies within the bounds, inclusive at
// both ends.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// width returns the span of the bounds, used to pick the most
// restrictive candidate when a lookup hint is omitted.
func (b Bounds) width() float64 {
	return b.Max - b.Min
}

// scale returns the bounds with both ends multiplied by f.
func (b Bounds) scale(f float64) Bounds {
	return Bounds{Min: b.Min * f, Max: b.Max * f}
}

// Ceiling reduces the maximum amplitude above a frequency threshold.
// A record may carry several; the applicable one with the lowest max
// wins, and an omitted frequency hint selects the lowest of all.
type Ceiling struct {
	Above float64 `yaml:"above"`
	Max   float64 `yaml:"max"`
}

// PathOverride replaces bounds when a specific output signal path is
// selected. Overrides are applied after every scale modifier and win
// outright. An override may be gated on an installed option; when
// both a gated and an ungated override exist for the same path, the
// gated one is used only if its option is installed.
type PathOverride struct {
	Path           string  `yaml:"path"`
	RequiresOption string  `yaml:"requires_option,omitempty"`
	Amplitude      *Bounds `yaml:"amplitude,omitempty"`
	Offset         *Bounds `yaml:"offset,omitempty"`

	// ZeroOffset forces the offset to exactly zero. Direct output
	// paths have no offset DAC at all.
	ZeroOffset bool `yaml:"zero_offset,omitempty"`
}

// OptionOverride replaces bounds when an instrument option is
// installed, independent of the selected path. Path overrides are
// still applied afterwards and win.
type OptionOverride struct {
	Option     string  `yaml:"option"`
	Amplitude  *Bounds `yaml:"amplitude,omitempty"`
	Offset     *Bounds `yaml:"offset,omitempty"`
	ZeroOffset bool    `yaml:"zero_offset,omitempty"`
	SampleRate *Bounds `yaml:"sample_rate,omitempty"`
}

// Record is one declarative constraint record, covering one model or
// a family of aliases matched by regexp.
type Record struct {
	// Model is the canonical model name. Match, when set, is a
	// regexp extending the record to model aliases.
	Model string `yaml:"model"`
	Match string `yaml:"match,omitempty"`

	Family   string `yaml:"family"`
	Channels int    `yaml:"channels"`

	// Functions maps each supported waveform to its frequency
	// bounds. Either this or FrequencyFromSampleRate must be set.
	Functions map[Function]Bounds `yaml:"functions,omitempty"`

	// FrequencyFromSampleRate derives per-function frequency bounds
	// from the sample rate range and the waveform record lengths
	// instead of listing them. Used by the arbitrary generators.
	FrequencyFromSampleRate bool    `yaml:"frequency_from_sample_rate,omitempty"`
	SampleRate              *Bounds `yaml:"sample_rate,omitempty"`

	// FrequencyMultiplier scales every frequency bound. The "B"
	// revision scopes double their internal source bandwidth.
	FrequencyMultiplier float64 `yaml:"frequency_multiplier,omitempty"`

	Amplitude         Bounds    `yaml:"amplitude"`
	AmplitudeCeilings []Ceiling `yaml:"amplitude_ceilings,omitempty"`
	Offset            Bounds    `yaml:"offset"`

	// TerminationScale is applied to amplitude and offset when the
	// load is 50 ohm. Half the open-circuit swing appears across a
	// matched load.
	TerminationScale float64 `yaml:"termination_scale,omitempty"`

	Paths   []PathOverride   `yaml:"paths,omitempty"`
	Options []OptionOverride `yaml:"options,omitempty"`

	DutyCycle *Bounds `yaml:"duty_cycle,omitempty"`
	Symmetry  *Bounds `yaml:"symmetry,omitempty"`
	Burst     *Bounds `yaml:"burst,omitempty"`
}

// Entry is the resolved, narrowest applicable range set for one
// lookup. Nil optional bounds mean the parameter does not apply to
// the model.
type Entry struct {
	Frequency  Bounds
	Amplitude  Bounds
	Offset     Bounds
	DutyCycle  *Bounds
	Symmetry   *Bounds
	SampleRate *Bounds
	Burst      *Bounds
}
