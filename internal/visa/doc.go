// Package visa provides message-based instrument sessions for tmcore.
//
// A Session is the single seam between the driver layers and the wire:
// everything above it (identification, constraint resolution, signal
// generation) talks SCPI through Write and Query and never touches a
// socket or serial port directly. Two concrete sessions are provided:
//
//   - TCPSession: raw-socket SCPI over TCP/IP. Tektronix instruments
//     listen on port 4000 by default.
//   - SerialSession: SCPI over a serial line (USB-serial or RS-232).
//
// Both terminate commands with a single linefeed and read
// linefeed-terminated responses, which matches the Tektronix
// message-based protocol on both transports.
//
// # Identification
//
// Identify issues "*IDN?" and "*OPT?" and parses the comma-separated
// response fields into an Identification value. This is the only place
// the wire format of those queries is known.
//
// # Concurrency
//
// Sessions serialise access internally; a Query cannot interleave with
// another Query's read. Callers still must not assume ordering between
// goroutines issuing commands concurrently.
package visa
