package siggen

import (
	"context"
	"fmt"
	"sync"

	"github.com/tekbench/tmcore/internal/constraint"
	"github.com/tekbench/tmcore/internal/infrastructure/logging"
	"github.com/tekbench/tmcore/internal/profile"
	"github.com/tekbench/tmcore/internal/visa"
)

// Polarity is the output polarity for pulse waveforms.
type Polarity string

// Output polarities.
const (
	PolarityNormal   Polarity = "NORM"
	PolarityInverted Polarity = "INV"
)

// Request describes one generation request. Pointer fields distinguish
// omitted parameters, which are neither validated nor written and stay
// at the instrument's current setting.
type Request struct {
	Function  constraint.Function
	Frequency *float64
	Amplitude *float64
	Offset    *float64
	DutyCycle *float64
	Symmetry  *float64

	// Termination selects the load impedance. Empty leaves the
	// instrument setting untouched and validates against the
	// unscaled (high impedance) ranges.
	Termination constraint.Termination

	// Path selects the output signal path on instruments that have
	// more than one.
	Path string

	// Polarity applies to pulse waveforms on the benchtop AFGs.
	Polarity Polarity
}

// Result records what a successful operation did to a channel.
type Result struct {
	Channel int

	// Entry is the resolved range set the request was validated
	// against before any command was written.
	Entry constraint.Entry

	// OutputEnabled reports whether the operation left the channel
	// output on.
	OutputEnabled bool

	// State is the channel state after the operation.
	State State
}

// Driver drives one signal-generating instrument through a session.
//
// Channel state is the single mutable resource: a request against a
// channel that is mid-configuration fails fast with ErrChannelBusy,
// while command issuance itself is serialised per device. Validation
// always precedes I/O; a request that fails resolution leaves the
// instrument untouched.
type Driver struct {
	session visa.Session
	profile *profile.Profile
	table   *constraint.Table
	cmds    commandSet
	logger  *logging.Logger

	stateMu  sync.Mutex
	channels []State

	ioMu sync.Mutex
}

// New builds a driver for an identified instrument.
//
// Parameters:
//   - session: Open instrument session
//   - p: Device profile from identification
//   - table: Loaded constraint table
//   - logger: Structured logger; component field is added here
//
// Returns:
//   - *Driver: Ready driver with all channels Idle
//   - error: If the profile's family has no command set
func New(session visa.Session, p *profile.Profile, table *constraint.Table, logger *logging.Logger) (*Driver, error) {
	cmds, err := commandSetFor(p.Family)
	if err != nil {
		return nil, err
	}

	return &Driver{
		session:  session,
		profile:  p,
		table:    table,
		cmds:     cmds,
		logger:   logger.With("component", "siggen", "model", p.Model),
		channels: make([]State, p.Channels+1),
	}, nil
}

// ChannelState returns the current state of a channel.
func (d *Driver) ChannelState(ch int) (State, error) {
	if err := d.checkChannel(ch); err != nil {
		return StateUnknown, err
	}

	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.channels[ch], nil
}

// GetWaveformConstraints resolves the applicable ranges without
// touching the instrument. Pure and idempotent; omitted hints resolve
// to the most restrictive candidate.
func (d *Driver) GetWaveformConstraints(fn constraint.Function, opts constraint.LookupOptions) (constraint.Entry, error) {
	return d.table.Lookup(d.profile, fn, opts)
}

// GenerateFunction validates req, programs the channel in the
// family's canonical order and enables the output.
//
// The sequence is disable output, termination, frequency, offset,
// function-specific extras, function, amplitude, enable output, then
// phase alignment on multi-channel instruments. Validation failures
// return before any command is written.
func (d *Driver) GenerateFunction(ctx context.Context, ch int, req Request) (Result, error) {
	entry, err := d.resolve(ch, req)
	if err != nil {
		return Result{}, err
	}

	prev, err := d.begin(ch)
	if err != nil {
		return Result{}, err
	}

	cmds := []string{d.cmds.disable(ch)}
	cmds = append(cmds, d.cmds.configure(ch, req)...)
	cmds = append(cmds, d.cmds.enable(ch))
	if align, ok := d.cmds.phaseSync(); ok && d.needsPhaseSync(req) {
		cmds = append(cmds, align)
	}

	if err := d.issue(ctx, ch, cmds); err != nil {
		return Result{}, err
	}

	d.finish(ch, StateEnabled)
	d.logger.Info("function generated",
		"channel", ch,
		"function", string(req.Function),
		"previous_state", prev.String(),
	)

	return Result{Channel: ch, Entry: entry, OutputEnabled: true, State: StateEnabled}, nil
}

// SetWaveformProperties validates req and programs the channel
// without ever toggling the output enable state.
func (d *Driver) SetWaveformProperties(ctx context.Context, ch int, req Request) (Result, error) {
	entry, err := d.resolve(ch, req)
	if err != nil {
		return Result{}, err
	}

	prev, err := d.begin(ch)
	if err != nil {
		return Result{}, err
	}

	if err := d.issue(ctx, ch, d.cmds.configure(ch, req)); err != nil {
		return Result{}, err
	}

	// The output relay was never touched, so the channel keeps its
	// previous enablement. An armed channel counts as enabled: burst
	// setup left the relay on.
	next := prev
	d.finish(ch, next)

	return Result{
		Channel:       ch,
		Entry:         entry,
		OutputEnabled: prev == StateEnabled || prev == StateBurstArmed,
		State:         next,
	}, nil
}

// SetupBurst validates req, programs the channel, arms a triggered
// burst of count cycles and enables the output. The burst is not
// fired; the channel ends BurstArmed.
func (d *Driver) SetupBurst(ctx context.Context, ch int, req Request, count int) (Result, error) {
	if !d.profile.Capabilities.Burst {
		return Result{}, fmt.Errorf("%w: %s", ErrBurstUnsupported, d.profile.Model)
	}

	entry, err := d.resolve(ch, req)
	if err != nil {
		return Result{}, err
	}
	if entry.Burst != nil && !entry.Burst.Contains(float64(count)) {
		return Result{}, &constraint.Violation{
			Field:   "burst count",
			Value:   float64(count),
			Allowed: *entry.Burst,
		}
	}

	prev, err := d.begin(ch)
	if err != nil {
		return Result{}, err
	}

	cmds := []string{d.cmds.disable(ch)}
	cmds = append(cmds, d.cmds.configure(ch, req)...)
	cmds = append(cmds, d.cmds.burstSetup(ch, count)...)
	cmds = append(cmds, d.cmds.enable(ch))

	if err := d.issue(ctx, ch, cmds); err != nil {
		return Result{}, err
	}

	d.finish(ch, StateBurstArmed)
	d.logger.Info("burst armed",
		"channel", ch,
		"count", count,
		"previous_state", prev.String(),
	)

	return Result{Channel: ch, Entry: entry, OutputEnabled: true, State: StateBurstArmed}, nil
}

// GenerateBurst fires a previously armed burst. The channel must be
// BurstArmed; anything else is ErrInvalidState and no command is
// issued. Fire-and-forget instruments transition straight back to
// Enabled; the rest are polled for completion first.
func (d *Driver) GenerateBurst(ctx context.Context, ch int) (Result, error) {
	if err := d.checkChannel(ch); err != nil {
		return Result{}, err
	}

	d.stateMu.Lock()
	if d.channels[ch] != StateBurstArmed {
		state := d.channels[ch]
		d.stateMu.Unlock()
		return Result{}, fmt.Errorf("%w: channel %d is %s, want %s", ErrInvalidState, ch, state, StateBurstArmed)
	}
	d.channels[ch] = StateBursting
	d.stateMu.Unlock()

	if err := d.issue(ctx, ch, []string{d.cmds.trigger(ch)}); err != nil {
		return Result{}, err
	}

	if !d.profile.Capabilities.BurstFireAndForget {
		d.ioMu.Lock()
		_, err := d.session.Query(ctx, "*OPC?")
		d.ioMu.Unlock()
		if err != nil {
			d.finish(ch, StateUnknown)
			return Result{}, fmt.Errorf("waiting for burst completion: %w", err)
		}
	}

	d.finish(ch, StateEnabled)
	d.logger.Info("burst triggered", "channel", ch)

	return Result{Channel: ch, OutputEnabled: true, State: StateEnabled}, nil
}

// resolve validates channel and request before any state or I/O.
func (d *Driver) resolve(ch int, req Request) (constraint.Entry, error) {
	if err := d.checkChannel(ch); err != nil {
		return constraint.Entry{}, err
	}

	return constraint.Resolve(d.table, d.profile, constraint.Request{
		Function:    req.Function,
		Frequency:   req.Frequency,
		Amplitude:   req.Amplitude,
		Offset:      req.Offset,
		DutyCycle:   req.DutyCycle,
		Symmetry:    req.Symmetry,
		Termination: req.Termination,
		Path:        req.Path,
	})
}

func (d *Driver) checkChannel(ch int) error {
	if ch < 1 || ch > d.profile.Channels {
		return fmt.Errorf("%w: %d (model has %d)", ErrInvalidChannel, ch, d.profile.Channels)
	}
	return nil
}

// begin moves the channel into Configuring, failing fast when a
// sequence is already in flight.
func (d *Driver) begin(ch int) (State, error) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	prev := d.channels[ch]
	if prev == StateConfiguring || prev == StateBursting {
		return prev, fmt.Errorf("%w: channel %d is %s", ErrChannelBusy, ch, prev)
	}
	d.channels[ch] = StateConfiguring
	return prev, nil
}

func (d *Driver) finish(ch int, s State) {
	d.stateMu.Lock()
	d.channels[ch] = s
	d.stateMu.Unlock()
}

// issue writes the command sequence under the device I/O lock. A
// failure parks the channel in Unknown: some commands may already
// have been applied.
func (d *Driver) issue(ctx context.Context, ch int, cmds []string) error {
	d.ioMu.Lock()
	defer d.ioMu.Unlock()

	for _, cmd := range cmds {
		if err := d.session.Write(ctx, "%s", cmd); err != nil {
			d.finish(ch, StateUnknown)
			d.logger.Error("command sequence failed",
				"channel", ch,
				"command", cmd,
				"error", err,
			)
			return fmt.Errorf("writing %q: %w", cmd, err)
		}
	}
	return nil
}

// needsPhaseSync reports whether the post-enable phase alignment
// applies: multi-channel instruments, non-DC waveforms.
func (d *Driver) needsPhaseSync(req Request) bool {
	return d.profile.Capabilities.PhaseSync &&
		d.profile.Channels > 1 &&
		req.Function != constraint.FuncDC
}
