package constraint

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel is returned when no record covers the model.
	ErrUnknownModel = errors.New("constraint: no record for model")

	// ErrUnsupportedFunction is returned when the model's record does
	// not list the requested waveform function.
	ErrUnsupportedFunction = errors.New("constraint: unsupported function")

	// ErrUnsupportedPath is returned when the requested output signal
	// path is not available on the model.
	ErrUnsupportedPath = errors.New("constraint: unsupported output path")
)

// Violation reports a requested parameter value outside its resolved
// bounds. Use errors.As to recover the field, value and allowed range.
type Violation struct {
	Field   string
	Value   float64
	Allowed Bounds
}

func (v *Violation) Error() string {
	return fmt.Sprintf("constraint: %s %g outside allowed range [%g, %g]",
		v.Field, v.Value, v.Allowed.Min, v.Allowed.Max)
}
