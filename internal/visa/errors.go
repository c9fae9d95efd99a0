package visa

import "errors"

var (
	// ErrClosed is returned when an operation is attempted on a
	// session that has been closed.
	ErrClosed = errors.New("visa: session closed")

	// ErrEmptyResponse is returned when a query produced no response
	// before the line terminator.
	ErrEmptyResponse = errors.New("visa: empty response")

	// ErrBadIdentification is returned when a *IDN? response does not
	// contain the four comma-separated fields the protocol requires.
	ErrBadIdentification = errors.New("visa: malformed *IDN? response")
)
