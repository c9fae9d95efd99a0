package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for tmcore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Instrument InstrumentConfig `yaml:"instrument"`
	Journal    JournalConfig    `yaml:"journal"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// InstrumentConfig describes how to reach the instrument.
type InstrumentConfig struct {
	// Transport selects the session type: "tcp" or "serial".
	Transport string `yaml:"transport"`

	// Host and Port are used by the tcp transport. Tektronix raw-socket
	// SCPI listens on 4000 by default.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Serial contains serial transport settings, used when Transport
	// is "serial".
	Serial SerialConfig `yaml:"serial"`

	// Timeout is the per-command I/O timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// SerialConfig contains serial port settings.
type SerialConfig struct {
	// Device is the serial device path (e.g. "/dev/ttyUSB0").
	Device string `yaml:"device"`

	// BaudRate is the line speed. Default: 115200.
	BaudRate int `yaml:"baud_rate"`
}

// JournalConfig contains command journal settings.
// The journal records every command written to and response read from
// the instrument in a SQLite database.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TMCORE_SECTION_KEY
// For example: TMCORE_INSTRUMENT_HOST, TMCORE_JOURNAL_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Instrument: InstrumentConfig{
			Transport: "tcp",
			Host:      "localhost",
			Port:      4000,
			Serial: SerialConfig{
				Device:   "/dev/ttyUSB0",
				BaudRate: 115200,
			},
			Timeout: 5,
		},
		Journal: JournalConfig{
			Enabled:     true,
			Path:        "./data/tmcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TMCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Instrument
	if v := os.Getenv("TMCORE_INSTRUMENT_TRANSPORT"); v != "" {
		cfg.Instrument.Transport = v
	}
	if v := os.Getenv("TMCORE_INSTRUMENT_HOST"); v != "" {
		cfg.Instrument.Host = v
	}
	if v := os.Getenv("TMCORE_INSTRUMENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Instrument.Port = port
		}
	}
	if v := os.Getenv("TMCORE_INSTRUMENT_SERIAL_DEVICE"); v != "" {
		cfg.Instrument.Serial.Device = v
	}

	// Journal
	if v := os.Getenv("TMCORE_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// Logging
	if v := os.Getenv("TMCORE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	switch c.Instrument.Transport {
	case "tcp":
		if c.Instrument.Host == "" {
			errs = append(errs, "instrument.host is required for the tcp transport")
		}
		if c.Instrument.Port < 1 || c.Instrument.Port > 65535 {
			errs = append(errs, "instrument.port must be between 1 and 65535")
		}
	case "serial":
		if c.Instrument.Serial.Device == "" {
			errs = append(errs, "instrument.serial.device is required for the serial transport")
		}
		if c.Instrument.Serial.BaudRate <= 0 {
			errs = append(errs, "instrument.serial.baud_rate must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("instrument.transport must be \"tcp\" or \"serial\", got %q", c.Instrument.Transport))
	}

	if c.Instrument.Timeout <= 0 {
		errs = append(errs, "instrument.timeout must be positive")
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CommandTimeout returns the per-command I/O timeout as a Duration.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Instrument.Timeout) * time.Second
}
