package profile

// Family identifies a group of models sharing a command set and
// constraint shape.
type Family string

// Known instrument families.
const (
	FamilyAFG3K    Family = "AFG3K"
	FamilyAFG31K   Family = "AFG31K"
	FamilyAWG5K    Family = "AWG5K"
	FamilyAWG7K    Family = "AWG7K"
	FamilyAWG5200  Family = "AWG5200"
	FamilyTekScope Family = "TekScope"
)

// Capabilities describes what the connected instrument can do. The
// signal generator driver consults these instead of switching on the
// family wherever possible.
type Capabilities struct {
	// Burst indicates support for triggered burst output.
	Burst bool

	// BurstFireAndForget indicates the trigger returns immediately
	// with no completion status to poll; the channel transitions
	// straight back to enabled after triggering.
	BurstFireAndForget bool

	// DutyCycle indicates the pulse duty cycle is settable.
	DutyCycle bool

	// Symmetry indicates the ramp symmetry is settable.
	Symmetry bool

	// PhaseSync indicates multi-channel instruments align channel
	// phase after enabling output.
	PhaseSync bool

	// OutputPaths lists selectable output signal paths. Empty means
	// the instrument has a single fixed path.
	OutputPaths []string
}

// Profile is the immutable description of a connected instrument.
// It is built once from identification and never mutated afterwards.
type Profile struct {
	Vendor   string
	Model    string
	Serial   string
	Firmware string
	Options  []string

	Family       Family
	Channels     int
	Capabilities Capabilities
}

// HasOption reports whether the given option code is installed.
func (p *Profile) HasOption(code string) bool {
	for _, o := range p.Options {
		if o == code {
			return true
		}
	}
	return false
}

// HasOutputPath reports whether path is one of the selectable output
// signal paths.
func (p *Profile) HasOutputPath(path string) bool {
	for _, o := range p.Capabilities.OutputPaths {
		if o == path {
			return true
		}
	}
	return false
}
