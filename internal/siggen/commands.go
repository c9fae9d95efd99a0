package siggen

import (
	"fmt"

	"github.com/tekbench/tmcore/internal/constraint"
	"github.com/tekbench/tmcore/internal/profile"
)

// commandSet builds the family-specific SCPI strings for one channel.
// The driver owns ordering and state; a command set only knows the
// wire syntax of its family.
type commandSet interface {
	// disable and enable toggle the channel output relay.
	disable(ch int) string
	enable(ch int) string

	// configure emits the parameter commands for a validated request
	// in the family's canonical order. Omitted request fields produce
	// no command.
	configure(ch int, req Request) []string

	// burstSetup arms a triggered burst of count cycles. Returns nil
	// on families without burst support.
	burstSetup(ch int, count int) []string

	// trigger fires an armed burst.
	trigger(ch int) string

	// phaseSync returns the post-enable phase alignment command, if
	// the family has one.
	phaseSync() (string, bool)
}

// commandSetFor selects the command set for a family.
func commandSetFor(family profile.Family) (commandSet, error) {
	switch family {
	case profile.FamilyAFG3K, profile.FamilyAFG31K:
		return afgCommands{}, nil
	case profile.FamilyTekScope:
		return iafgCommands{}, nil
	case profile.FamilyAWG5K, profile.FamilyAWG7K, profile.FamilyAWG5200:
		return awgCommands{}, nil
	default:
		return nil, fmt.Errorf("siggen: no command set for family %q", family)
	}
}

// afgFunctionNames maps waveform functions to the AFG mnemonic.
var afgFunctionNames = map[constraint.Function]string{
	constraint.FuncSine:      "SIN",
	constraint.FuncSquare:    "SQU",
	constraint.FuncRamp:      "RAMP",
	constraint.FuncPulse:     "PULS",
	constraint.FuncTriangle:  "TRI",
	constraint.FuncNoise:     "PRN",
	constraint.FuncDC:        "DC",
	constraint.FuncSinc:      "SINC",
	constraint.FuncArbitrary: "EMEM",
}

// afgCommands speaks the benchtop AFG3000/AFG31000 dialect.
type afgCommands struct{}

func (afgCommands) disable(ch int) string { return fmt.Sprintf("OUTPUT%d:STATE 0", ch) }
func (afgCommands) enable(ch int) string  { return fmt.Sprintf("OUTPUT%d:STATE 1", ch) }

func (afgCommands) configure(ch int, req Request) []string {
	var cmds []string

	switch req.Termination {
	case constraint.TerminationFiftyOhm:
		cmds = append(cmds, fmt.Sprintf("OUTPUT%d:IMPEDANCE 50", ch))
	case constraint.TerminationHighZ:
		cmds = append(cmds, fmt.Sprintf("OUTPUT%d:IMPEDANCE INFINITY", ch))
	}

	if req.Frequency != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:FREQUENCY:FIXED %g", ch, *req.Frequency))
	}
	if req.Offset != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:VOLTAGE:OFFSET %g", ch, *req.Offset))
	}
	if req.Function == constraint.FuncPulse && req.DutyCycle != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:PULSE:DCYCLE %g", ch, *req.DutyCycle))
	}
	if req.Polarity != "" {
		cmds = append(cmds, fmt.Sprintf("OUTPUT%d:POLARITY %s", ch, req.Polarity))
	}
	if req.Function == constraint.FuncRamp && req.Symmetry != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:FUNCTION:RAMP:SYMMETRY %g", ch, *req.Symmetry))
	}

	cmds = append(cmds, fmt.Sprintf("SOURCE%d:FUNCTION %s", ch, afgFunctionNames[req.Function]))

	// Amplitude last: it is interpreted relative to the termination
	// already programmed above.
	if req.Amplitude != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:VOLTAGE:AMPLITUDE %g", ch, *req.Amplitude))
	}

	return cmds
}

func (afgCommands) burstSetup(ch int, count int) []string {
	return []string{
		"TRIGGER:SEQUENCE:SOURCE EXT",
		fmt.Sprintf("SOURCE%d:BURST:STATE 1", ch),
		fmt.Sprintf("SOURCE%d:BURST:MODE TRIG", ch),
		fmt.Sprintf("SOURCE%d:BURST:NCYCLES %d", ch, count),
	}
}

func (afgCommands) trigger(int) string { return "*TRG" }

func (afgCommands) phaseSync() (string, bool) { return "SOURCE1:PHASE:INITIATE", true }

// iafgFunctionNames maps waveform functions to the scope internal AFG
// mnemonic.
var iafgFunctionNames = map[constraint.Function]string{
	constraint.FuncSine:      "SINE",
	constraint.FuncSquare:    "SQUARE",
	constraint.FuncRamp:      "RAMP",
	constraint.FuncPulse:     "PULSE",
	constraint.FuncTriangle:  "TRIANGLE",
	constraint.FuncNoise:     "NOISE",
	constraint.FuncDC:        "DC",
	constraint.FuncSinc:      "SINC",
	constraint.FuncArbitrary: "ARBITRARY",
}

// iafgCommands speaks the oscilloscope internal AFG dialect. The
// source is a single channel, so ch never appears on the wire.
type iafgCommands struct{}

func (iafgCommands) disable(int) string { return "AFG:OUTPUT:STATE 0" }
func (iafgCommands) enable(int) string  { return "AFG:OUTPUT:STATE 1" }

func (iafgCommands) configure(_ int, req Request) []string {
	var cmds []string

	switch req.Termination {
	case constraint.TerminationFiftyOhm:
		cmds = append(cmds, "AFG:OUTPUT:LOAD:IMPEDANCE FIFTY")
	case constraint.TerminationHighZ:
		cmds = append(cmds, "AFG:OUTPUT:LOAD:IMPEDANCE HIGHZ")
	}

	if req.Frequency != nil {
		cmds = append(cmds, fmt.Sprintf("AFG:FREQUENCY %g", *req.Frequency))
	}
	if req.Offset != nil {
		cmds = append(cmds, fmt.Sprintf("AFG:OFFSET %g", *req.Offset))
	}
	if req.DutyCycle != nil && (req.Function == constraint.FuncSquare || req.Function == constraint.FuncPulse) {
		cmds = append(cmds, fmt.Sprintf("AFG:SQUARE:DUTY %g", *req.DutyCycle))
	}
	if req.Function == constraint.FuncRamp && req.Symmetry != nil {
		cmds = append(cmds, fmt.Sprintf("AFG:RAMP:SYMMETRY %g", *req.Symmetry))
	}

	cmds = append(cmds, fmt.Sprintf("AFG:FUNCTION %s", iafgFunctionNames[req.Function]))

	if req.Amplitude != nil {
		cmds = append(cmds, fmt.Sprintf("AFG:AMPLITUDE %g", *req.Amplitude))
	}

	return cmds
}

func (iafgCommands) burstSetup(_ int, count int) []string {
	return []string{
		"AFG:OUTPUT:MODE BURST",
		fmt.Sprintf("AFG:BURST:CCOUNT %d", count),
	}
}

func (iafgCommands) trigger(int) string { return "AFG:BURST:TRIGGER" }

func (iafgCommands) phaseSync() (string, bool) { return "", false }

// awgWaveformNames maps derivable functions to the predefined
// waveform each loads.
var awgWaveformNames = map[constraint.Function]string{
	constraint.FuncSine:     "*Sine3600",
	constraint.FuncSquare:   "*Square1000",
	constraint.FuncRamp:     "*Ramp1000",
	constraint.FuncTriangle: "*Triangle1000",
	constraint.FuncDC:       "*DC",
	constraint.FuncClock:    "*Clock960",
}

// awgCommands speaks the arbitrary waveform generator dialect.
// Function generation loads a predefined waveform and scales it.
type awgCommands struct{}

func (awgCommands) disable(ch int) string { return fmt.Sprintf("OUTPUT%d:STATE 0", ch) }
func (awgCommands) enable(ch int) string  { return fmt.Sprintf("OUTPUT%d:STATE 1", ch) }

func (awgCommands) configure(ch int, req Request) []string {
	var cmds []string

	if req.Path != "" {
		cmds = append(cmds, fmt.Sprintf("OUTPUT%d:PATH %s", ch, req.Path))
	}
	if req.Frequency != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:FREQUENCY %g", ch, *req.Frequency))
	}
	if req.Offset != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:VOLTAGE:OFFSET %g", ch, *req.Offset))
	}

	cmds = append(cmds, fmt.Sprintf("SOURCE%d:WAVEFORM \"%s\"", ch, awgWaveformNames[req.Function]))

	if req.Amplitude != nil {
		cmds = append(cmds, fmt.Sprintf("SOURCE%d:VOLTAGE:AMPLITUDE %g", ch, *req.Amplitude))
	}

	cmds = append(cmds, "AWGCONTROL:RUN")
	return cmds
}

func (awgCommands) burstSetup(int, int) []string { return nil }

func (awgCommands) trigger(int) string { return "*TRG" }

func (awgCommands) phaseSync() (string, bool) { return "", false }
