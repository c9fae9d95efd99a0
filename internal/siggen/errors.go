package siggen

import "errors"

var (
	// ErrInvalidChannel is returned when the channel number is
	// outside 1..Profile.Channels.
	ErrInvalidChannel = errors.New("siggen: invalid channel")

	// ErrInvalidState is returned when an operation is not legal in
	// the channel's current state, e.g. triggering a burst on a
	// channel that was never armed. No commands are issued.
	ErrInvalidState = errors.New("siggen: invalid channel state")

	// ErrChannelBusy is returned when a request arrives for a channel
	// that is mid-configuration or mid-burst. The caller should retry
	// after the in-flight sequence completes.
	ErrChannelBusy = errors.New("siggen: channel busy")

	// ErrBurstUnsupported is returned when burst operations are
	// requested on an instrument without burst capability.
	ErrBurstUnsupported = errors.New("siggen: burst not supported")
)
