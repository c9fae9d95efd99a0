package constraint

import "github.com/tekbench/tmcore/internal/profile"

// Request carries the parameters a caller wants to validate against
// the table. Pointer fields distinguish "omitted" from zero: omitted
// parameters are not validated and are left at the instrument's
// current setting.
type Request struct {
	Function    Function
	Frequency   *float64
	Amplitude   *float64
	Offset      *float64
	DutyCycle   *float64
	Symmetry    *float64
	Termination Termination
	Path        string
}

// Resolve validates a request against the table and returns the
// resolved range set it was checked against.
//
// Resolution is pure: no I/O happens here, so a failed request never
// touches the instrument. Fields are checked in a fixed order (frequency, amplitude,
// offset, duty cycle, symmetry) and the first violation wins.
// Membership is inclusive at both ends.
//
// Parameters:
//   - t: Loaded constraint table
//   - p: Device profile of the connected instrument
//   - req: Parameters to validate
//
// Returns:
//   - Entry: Ranges the request was validated against
//   - error: ErrUnknownModel, ErrUnsupportedFunction,
//     ErrUnsupportedPath, or a *Violation for the first failing field
func Resolve(t *Table, p *profile.Profile, req Request) (Entry, error) {
	entry, err := t.Lookup(p, req.Function, LookupOptions{
		Path:        req.Path,
		Termination: req.Termination,
		Frequency:   req.Frequency,
	})
	if err != nil {
		return Entry{}, err
	}

	checks := []struct {
		field  string
		value  *float64
		bounds *Bounds
	}{
		{"frequency", req.Frequency, &entry.Frequency},
		{"amplitude", req.Amplitude, &entry.Amplitude},
		{"offset", req.Offset, &entry.Offset},
		{"duty cycle", req.DutyCycle, entry.DutyCycle},
		{"symmetry", req.Symmetry, entry.Symmetry},
	}

	for _, c := range checks {
		if c.value == nil || c.bounds == nil {
			continue
		}
		if !c.bounds.Contains(*c.value) {
			return Entry{}, &Violation{
				Field:   c.field,
				Value:   *c.value,
				Allowed: *c.bounds,
			}
		}
	}

	return entry, nil
}
