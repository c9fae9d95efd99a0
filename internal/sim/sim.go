package sim

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Description declares a simulated device: canned query responses
// plus settable properties with their accepted values.
type Description struct {
	// Model is informational, used in error messages.
	Model string `yaml:"model"`

	// Responses maps a query string to its canned response.
	Responses map[string]string `yaml:"responses"`

	// Properties declares settable instrument properties.
	Properties []Property `yaml:"properties"`
}

// Property is one settable instrument property. A write whose command
// matches Set is validated against the numeric range or the
// enumerated values and stored; the stored value is returned for the
// matching Query.
type Property struct {
	Name string `yaml:"name"`

	// Set is the command prefix, e.g. "SOURCE1:FREQUENCY:FIXED".
	// The argument follows after a space.
	Set string `yaml:"set"`

	// Query is the query form, e.g. "SOURCE1:FREQUENCY:FIXED?".
	Query string `yaml:"query,omitempty"`

	// Min and Max accept any number within the range, inclusive.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Valid accepts only the enumerated argument strings.
	Valid []string `yaml:"valid,omitempty"`

	// Default is the value reported before any set.
	Default string `yaml:"default,omitempty"`
}

// Device is an in-memory instrument implementing the session
// interface. It records every command written, which is what the
// driver tests assert command ordering against.
type Device struct {
	mu       sync.Mutex
	desc     Description
	values   map[string]string // property name → current value
	commands []string
	closed   bool

	// failAfter, when >= 0, fails the write after that many
	// successful commands. Simulates a transport loss mid-sequence.
	failAfter int
}

// New builds a device from a description.
func New(desc Description) *Device {
	d := &Device{
		desc:      desc,
		values:    make(map[string]string),
		failAfter: -1,
	}
	for _, p := range desc.Properties {
		if p.Default != "" {
			d.values[p.Name] = p.Default
		}
	}
	return d
}

// Load parses a YAML description and builds the device from it.
func Load(data []byte) (*Device, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("sim: parsing description: %w", err)
	}
	for _, p := range desc.Properties {
		if p.Set == "" {
			return nil, fmt.Errorf("sim: property %q: set command is required", p.Name)
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return nil, fmt.Errorf("sim: property %q: min %g exceeds max %g", p.Name, *p.Min, *p.Max)
		}
	}
	return New(desc), nil
}

// FailAfter arranges for the n+1th subsequent write to fail,
// simulating a transport loss mid-sequence.
func (d *Device) FailAfter(n int) {
	d.mu.Lock()
	d.failAfter = n
	d.mu.Unlock()
}

// Write records the command and applies it to the matching property,
// if any. Out-of-spec property values are rejected the way a strict
// instrument in an error-queue-checking setup would.
func (d *Device) Write(_ context.Context, format string, a ...any) error {
	cmd := format
	if len(a) > 0 {
		cmd = fmt.Sprintf(format, a...)
	}
	cmd = strings.TrimSpace(cmd)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("sim: device closed")
	}
	if d.failAfter == 0 {
		return fmt.Errorf("sim: injected transport failure at %q", cmd)
	}
	if d.failAfter > 0 {
		d.failAfter--
	}

	d.commands = append(d.commands, cmd)

	for _, p := range d.desc.Properties {
		arg, ok := matchSet(p.Set, cmd)
		if !ok {
			continue
		}
		if err := p.accept(arg); err != nil {
			return err
		}
		d.values[p.Name] = arg
		return nil
	}
	return nil
}

// Query answers from the canned responses first, then from property
// state. Unknown queries time out on real hardware; here they error.
func (d *Device) Query(_ context.Context, cmd string) (string, error) {
	cmd = strings.TrimSpace(cmd)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", fmt.Errorf("sim: device closed")
	}

	if resp, ok := d.desc.Responses[cmd]; ok {
		return resp, nil
	}
	for _, p := range d.desc.Properties {
		if p.Query != "" && p.Query == cmd {
			if v, ok := d.values[p.Name]; ok {
				return v, nil
			}
			return "", fmt.Errorf("sim: property %q never set and has no default", p.Name)
		}
	}
	return "", fmt.Errorf("sim: no response for %q", cmd)
}

// Close marks the device closed. Idempotent.
func (d *Device) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Commands returns a copy of every command written so far, in order.
func (d *Device) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(d.commands))
	copy(out, d.commands)
	return out
}

// Reset clears the command log, keeping property state.
func (d *Device) Reset() {
	d.mu.Lock()
	d.commands = nil
	d.mu.Unlock()
}

// Value returns the current value of a property.
func (d *Device) Value(name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.values[name]
	return v, ok
}

// matchSet splits "PREFIX arg" against the property set prefix.
func matchSet(prefix, cmd string) (string, bool) {
	if !strings.HasPrefix(cmd, prefix+" ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(cmd, prefix+" ")), true
}

// accept validates an argument against the property spec.
func (p *Property) accept(arg string) error {
	if len(p.Valid) > 0 {
		for _, v := range p.Valid {
			if v == arg {
				return nil
			}
		}
		return fmt.Errorf("sim: property %q rejects %q (valid: %s)", p.Name, arg, strings.Join(p.Valid, ", "))
	}

	if p.Min != nil || p.Max != nil {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("sim: property %q expects a number, got %q", p.Name, arg)
		}
		if p.Min != nil && v < *p.Min {
			return fmt.Errorf("sim: property %q value %g below min %g", p.Name, v, *p.Min)
		}
		if p.Max != nil && v > *p.Max {
			return fmt.Errorf("sim: property %q value %g above max %g", p.Name, v, *p.Max)
		}
	}
	return nil
}
