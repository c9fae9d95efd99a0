// Package constraint resolves per-model waveform parameter limits.
//
// Every generation request is validated here before a single command
// string is emitted. The data is declarative: one Record per model
// (or alias group), embedded as YAML and validated at load, and one
// generic narrowing algorithm over that data. Adding a model means
// adding a record, not a code path.
//
// # Resolution pipeline
//
//	       ┌─────────────────────────────┐
//	       │ base per-function range     │  Record.Functions or
//	       │ + base amplitude/offset     │  sample-rate derivation
//	       └──────────────┬──────────────┘
//	                      │
//	       ┌──────────────▼──────────────┐
//	       │ frequency-dependent ceiling │  no hint → lowest ceiling
//	       └──────────────┬──────────────┘
//	                      │
//	       ┌──────────────▼──────────────┐
//	       │ installed-option overrides  │  replace, from *OPT?
//	       └──────────────┬──────────────┘
//	                      │
//	       ┌──────────────▼──────────────┐
//	       │ termination scaling         │  multiplicative
//	       └──────────────┬──────────────┘
//	                      │
//	       ┌──────────────▼──────────────┐
//	       │ output path override        │  applied last, wins
//	       └──────────────┬──────────────┘
//	                      ▼
//	                    Entry
//
// The result is always the narrowest applicable range, never a union
// across variants. Omitted hints resolve conservatively: an unknown
// frequency selects the lowest amplitude ceiling, an unselected path
// the most restrictive override.
//
// # Validation
//
// Resolve checks a Request against the resolved Entry in a fixed
// field order (frequency, amplitude, offset, duty cycle, symmetry),
// inclusively at both ends. The first violation wins and is reported
// as a *Violation carrying field, value and allowed range. Omitted
// fields are not checked.
//
// Both Lookup and Resolve are pure functions over immutable data;
// they perform no I/O and are safe for concurrent use.
package constraint
