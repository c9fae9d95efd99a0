// Package siggen drives Tektronix signal-generating instruments.
//
// The driver sits between validated intent and the wire:
//
//	request ──► constraint.Resolve ──► command sequence ──► visa.Session
//	                 (pure)              (per family)
//
// Validation always wins: a request that fails resolution returns the
// violation before a single command is written, so the instrument is
// never left half-configured by bad input. Only a transport failure
// mid-sequence can do that, and it parks the channel in the Unknown
// state.
//
// # Channel state machine
//
//	Idle ──► Configuring ──► Enabled ──► BurstArmed ──► Bursting ──► Enabled
//	              │
//	              └──(transport failure)──► Unknown
//
// Each channel is an independent resource. A request against a
// channel that is mid-configuration or mid-burst fails fast with
// ErrChannelBusy; triggering a burst on a channel that is not armed
// fails with ErrInvalidState and issues nothing.
//
// # Command dialects
//
// Three dialects cover the supported families: the benchtop AFGs
// (SOURCEn/OUTPUTn subsystem), the oscilloscope internal AFG (AFG:*
// subsystem, single channel) and the arbitrary waveform generators
// (predefined waveform loading). The driver owns ordering; a command
// set only renders syntax.
package siggen
