package profile

import "errors"

var (
	// ErrUnsupportedVendor is returned when the instrument does not
	// identify as a Tektronix device.
	ErrUnsupportedVendor = errors.New("profile: unsupported vendor")

	// ErrUnsupportedModel is returned when the model string does not
	// map to any known family.
	ErrUnsupportedModel = errors.New("profile: unsupported model")
)
