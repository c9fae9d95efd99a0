package constraint

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tekbench/tmcore/internal/profile"
)

//go:embed data/*.yaml
var dataFS embed.FS

// recordLengths maps each derivable waveform function to its valid
// record length range in samples. For the arbitrary generators the
// output frequency is the sample rate divided by the record length,
// so the frequency bounds follow from the sample rate bounds.
var recordLengths = map[Function]Bounds{
	FuncSine:     {Min: 10, Max: 3600},
	FuncClock:    {Min: 960, Max: 960},
	FuncSquare:   {Min: 10, Max: 1000},
	FuncRamp:     {Min: 10, Max: 1000},
	FuncTriangle: {Min: 10, Max: 1000},
	FuncDC:       {Min: 1000, Max: 1000},
}

// Table holds the loaded constraint records and the compiled alias
// patterns. A Table is immutable after Load and safe for concurrent
// use.
type Table struct {
	records  []Record
	patterns []*regexp.Regexp // index-aligned with records; nil when no alias
	byModel  map[string]int
}

// LookupOptions carries the optional hints a lookup narrows by.
// Zero values mean "not specified" and resolve conservatively.
type LookupOptions struct {
	// Path selects an output signal path override.
	Path string

	// Termination selects the load impedance. Empty means high
	// impedance (no scaling).
	Termination Termination

	// Frequency, when set, selects the applicable amplitude ceiling.
	// When nil the lowest ceiling applies.
	Frequency *float64
}

var (
	defaultTable    *Table
	defaultTableErr error
	loadOnce        sync.Once
)

// Default returns the table built from the embedded data files.
// Loading happens once; the validated result is shared.
func Default() (*Table, error) {
	loadOnce.Do(func() {
		defaultTable, defaultTableErr = Load(dataFS)
	})
	return defaultTable, defaultTableErr
}

// Load parses and validates every data file in fsys. Any invalid
// record fails the whole load; a half-usable table is worse than a
// startup error.
//
// Parameters:
//   - fsys: Filesystem containing data/*.yaml record files
//
// Returns:
//   - *Table: Validated, immutable table
//   - error: First validation failure, annotated with file and model
func Load(fsys fs.FS) (*Table, error) {
	files, err := fs.Glob(fsys, "data/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("globbing data files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no constraint data files found")
	}
	sort.Strings(files)

	t := &Table{byModel: make(map[string]int)}

	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		var records []Record
		if err := yaml.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}

		for _, rec := range records {
			if err := validateRecord(&rec); err != nil {
				return nil, fmt.Errorf("%s: record %q: %w", file, rec.Model, err)
			}
			if _, dup := t.byModel[rec.Model]; dup {
				return nil, fmt.Errorf("%s: duplicate record for model %q", file, rec.Model)
			}

			var pattern *regexp.Regexp
			if rec.Match != "" {
				pattern, err = regexp.Compile(rec.Match)
				if err != nil {
					return nil, fmt.Errorf("%s: record %q: compiling match: %w", file, rec.Model, err)
				}
			}

			t.byModel[rec.Model] = len(t.records)
			t.records = append(t.records, rec)
			t.patterns = append(t.patterns, pattern)
		}
	}

	return t, nil
}

// validateRecord enforces the structural invariants every record must
// satisfy before it is trusted at lookup time.
func validateRecord(rec *Record) error {
	if rec.Model == "" {
		return fmt.Errorf("model is required")
	}
	if rec.Family == "" {
		return fmt.Errorf("family is required")
	}

	checkBounds := func(name string, b Bounds) error {
		if b.Min > b.Max {
			return fmt.Errorf("%s: min %g exceeds max %g", name, b.Min, b.Max)
		}
		return nil
	}

	if err := checkBounds("amplitude", rec.Amplitude); err != nil {
		return err
	}
	if rec.Amplitude.Min <= 0 {
		return fmt.Errorf("amplitude: min must be positive, got %g", rec.Amplitude.Min)
	}
	if err := checkBounds("offset", rec.Offset); err != nil {
		return err
	}

	if rec.FrequencyFromSampleRate {
		if rec.SampleRate == nil {
			return fmt.Errorf("frequency_from_sample_rate requires sample_rate")
		}
	} else if len(rec.Functions) == 0 {
		return fmt.Errorf("functions is required unless frequency_from_sample_rate is set")
	}

	for fn, b := range rec.Functions {
		if err := checkBounds(fmt.Sprintf("functions.%s", fn), b); err != nil {
			return err
		}
	}
	for _, name := range []struct {
		label  string
		bounds *Bounds
	}{
		{"sample_rate", rec.SampleRate},
		{"duty_cycle", rec.DutyCycle},
		{"symmetry", rec.Symmetry},
		{"burst", rec.Burst},
	} {
		if name.bounds != nil {
			if err := checkBounds(name.label, *name.bounds); err != nil {
				return err
			}
		}
	}

	if rec.TerminationScale < 0 || rec.TerminationScale > 1 {
		return fmt.Errorf("termination_scale must be within [0, 1], got %g", rec.TerminationScale)
	}
	if rec.FrequencyMultiplier < 0 {
		return fmt.Errorf("frequency_multiplier must be positive, got %g", rec.FrequencyMultiplier)
	}

	for _, c := range rec.AmplitudeCeilings {
		if c.Above <= 0 || c.Max <= 0 {
			return fmt.Errorf("amplitude_ceilings: above and max must be positive, got above %g max %g", c.Above, c.Max)
		}
		if c.Max > rec.Amplitude.Max {
			return fmt.Errorf("amplitude_ceilings: ceiling %g exceeds base max %g", c.Max, rec.Amplitude.Max)
		}
	}

	for _, p := range rec.Paths {
		if p.Path == "" {
			return fmt.Errorf("paths: path name is required")
		}
		if p.Amplitude != nil {
			if err := checkBounds("paths."+p.Path+".amplitude", *p.Amplitude); err != nil {
				return err
			}
		}
		if p.Offset != nil && p.ZeroOffset {
			return fmt.Errorf("paths.%s: offset and zero_offset are mutually exclusive", p.Path)
		}
		if p.Offset != nil {
			if err := checkBounds("paths."+p.Path+".offset", *p.Offset); err != nil {
				return err
			}
		}
	}

	for _, o := range rec.Options {
		if o.Option == "" {
			return fmt.Errorf("options: option code is required")
		}
		if o.Amplitude != nil {
			if err := checkBounds("options."+o.Option+".amplitude", *o.Amplitude); err != nil {
				return err
			}
		}
		if o.SampleRate != nil {
			if err := checkBounds("options."+o.Option+".sample_rate", *o.SampleRate); err != nil {
				return err
			}
		}
	}

	return nil
}

// Find returns the record covering the given model: an exact model
// match first, then the first alias pattern that matches.
func (t *Table) Find(model string) (*Record, error) {
	if i, ok := t.byModel[model]; ok {
		return &t.records[i], nil
	}
	for i, pattern := range t.patterns {
		if pattern != nil && pattern.MatchString(model) {
			return &t.records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// Records returns all loaded records. Used by table-wide property
// tests; callers must not mutate the result.
func (t *Table) Records() []Record {
	return t.records
}

// Lookup resolves the narrowest applicable range set for one model,
// function and hint combination.
//
// Modifiers apply in a fixed order:
//  1. base per-function frequency range and base amplitude/offset
//  2. frequency-dependent amplitude ceiling, selected by the
//     frequency hint; no hint selects the lowest ceiling
//  3. termination scaling (multiplicative)
//  4. output path override, applied last; it replaces rather than
//     scales, and a direct path forces offset to exactly zero
//
// Option overrides apply between steps 2 and 3 (they describe the
// installed hardware, not a per-request setting).
//
// Returns ErrUnsupportedFunction when the record does not list the
// function, and ErrUnsupportedPath for an unknown path name.
func (t *Table) Lookup(p *profile.Profile, fn Function, opts LookupOptions) (Entry, error) {
	rec, err := t.Find(p.Model)
	if err != nil {
		return Entry{}, err
	}

	sampleRate := rec.SampleRate
	for _, o := range rec.Options {
		if o.SampleRate != nil && p.HasOption(o.Option) {
			sampleRate = o.SampleRate
		}
	}

	freq, err := frequencyBounds(rec, fn, sampleRate)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Frequency:  freq,
		Amplitude:  rec.Amplitude,
		Offset:     rec.Offset,
		DutyCycle:  rec.DutyCycle,
		Symmetry:   rec.Symmetry,
		SampleRate: sampleRate,
		Burst:      rec.Burst,
	}

	// Frequency-dependent ceiling. Without a hint the lowest ceiling
	// applies: an unknown frequency must not unlock the wider range.
	if ceiling, ok := applicableCeiling(rec.AmplitudeCeilings, opts.Frequency); ok {
		if ceiling < entry.Amplitude.Max {
			entry.Amplitude.Max = ceiling
		}
	}

	// Installed-option overrides.
	for _, o := range rec.Options {
		if !p.HasOption(o.Option) {
			continue
		}
		if o.Amplitude != nil {
			entry.Amplitude = *o.Amplitude
		}
		if o.ZeroOffset {
			entry.Offset = Bounds{}
		} else if o.Offset != nil {
			entry.Offset = *o.Offset
		}
	}

	// Termination scaling.
	if opts.Termination == TerminationFiftyOhm && rec.TerminationScale > 0 {
		entry.Amplitude = entry.Amplitude.scale(rec.TerminationScale)
		entry.Offset = entry.Offset.scale(rec.TerminationScale)
	}

	// Path override last; it wins.
	override, err := selectPathOverride(rec, p, opts.Path)
	if err != nil {
		return Entry{}, err
	}
	if override != nil {
		if override.Amplitude != nil {
			entry.Amplitude = *override.Amplitude
		}
		if override.ZeroOffset {
			entry.Offset = Bounds{}
		} else if override.Offset != nil {
			entry.Offset = *override.Offset
		}
	}

	return entry, nil
}

// frequencyBounds returns the per-function frequency range, either
// listed directly or derived from the sample rate and the waveform
// record length.
func frequencyBounds(rec *Record, fn Function, sampleRate *Bounds) (Bounds, error) {
	if rec.FrequencyFromSampleRate {
		length, ok := recordLengths[fn]
		if !ok {
			return Bounds{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedFunction, fn, rec.Model)
		}
		b := Bounds{
			Min: sampleRate.Min / length.Max,
			Max: sampleRate.Max / length.Min,
		}
		return applyMultiplier(b, rec.FrequencyMultiplier), nil
	}

	b, ok := rec.Functions[fn]
	if !ok {
		return Bounds{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedFunction, fn, rec.Model)
	}
	return applyMultiplier(b, rec.FrequencyMultiplier), nil
}

func applyMultiplier(b Bounds, mult float64) Bounds {
	if mult == 0 {
		return b
	}
	b.Max *= mult
	return b
}

// applicableCeiling picks the ceiling for the given frequency hint.
// Several ceilings may apply; the lowest wins. A nil hint is treated
// as "could be anywhere", so every ceiling applies.
func applicableCeiling(ceilings []Ceiling, freq *float64) (float64, bool) {
	applied := false
	lowest := 0.0
	for _, c := range ceilings {
		if freq != nil && *freq <= c.Above {
			continue
		}
		if !applied || c.Max < lowest {
			lowest = c.Max
			applied = true
		}
	}
	return lowest, applied
}

// selectPathOverride picks the override for the requested path. When
// both a gated and an ungated override exist for the path, the gated
// one wins if its option is installed. An empty path on a record with
// paths selects the most restrictive candidate, narrowest amplitude
// first, then narrowest offset.
func selectPathOverride(rec *Record, p *profile.Profile, path string) (*PathOverride, error) {
	if len(rec.Paths) == 0 {
		if path != "" {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnsupportedPath, path, rec.Model)
		}
		return nil, nil
	}

	var candidates []*PathOverride
	for i := range rec.Paths {
		o := &rec.Paths[i]
		if path != "" && o.Path != path {
			continue
		}
		if o.RequiresOption != "" && !p.HasOption(o.RequiresOption) {
			continue
		}
		candidates = append(candidates, o)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnsupportedPath, path, rec.Model)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if preferOverride(c, best) {
			best = c
		}
	}
	return best, nil
}

// preferOverride reports whether a should be chosen over b. A gated
// override outranks an ungated one for the same path (it only reached
// the candidate list if its option is installed); otherwise the more
// restrictive amplitude wins, then the more restrictive offset.
func preferOverride(a, b *PathOverride) bool {
	if a.Path == b.Path {
		return a.RequiresOption != "" && b.RequiresOption == ""
	}

	aw, bw := overrideAmplitudeWidth(a), overrideAmplitudeWidth(b)
	if aw != bw {
		return aw < bw
	}
	return overrideOffsetWidth(a) < overrideOffsetWidth(b)
}

func overrideAmplitudeWidth(o *PathOverride) float64 {
	if o.Amplitude == nil {
		return inf
	}
	return o.Amplitude.width()
}

func overrideOffsetWidth(o *PathOverride) float64 {
	if o.ZeroOffset {
		return 0
	}
	if o.Offset == nil {
		return inf
	}
	return o.Offset.width()
}

const inf = 1e308
