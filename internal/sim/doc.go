// Package sim provides a declarative simulated instrument.
//
// A Device is described in YAML (or built from a Description in
// code): canned query responses plus settable properties with numeric
// ranges or enumerated values. It implements the same session
// interface the real transports do, so driver code under test cannot
// tell the difference.
//
// The command log is the point: tests assert the exact order of
// commands a driver issued, and FailAfter injects a transport loss
// mid-sequence to exercise the Unknown-state path.
//
// Example description:
//
//	model: AFG3011
//	responses:
//	  "*IDN?": "TEKTRONIX,AFG3011,C000101,SCPI:99.0 FV:1.0"
//	  "*OPT?": "0"
//	properties:
//	  - name: frequency
//	    set: "SOURCE1:FREQUENCY:FIXED"
//	    query: "SOURCE1:FREQUENCY:FIXED?"
//	    min: 1.0e-6
//	    max: 10.0e+6
//	    default: "1.0e+6"
package sim
