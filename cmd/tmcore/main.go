// tmcore - Tektronix signal generator control core
//
// This is the main entry point for the tmcore command line tool. It
// connects to a Tektronix AFG, AWG or scope-integrated generator over
// TCP or serial, identifies it, and either reports the waveform
// constraints that apply to it or programs a waveform on one of its
// channels.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tekbench/tmcore/internal/constraint"
	"github.com/tekbench/tmcore/internal/infrastructure/config"
	"github.com/tekbench/tmcore/internal/infrastructure/database"
	"github.com/tekbench/tmcore/internal/infrastructure/logging"
	"github.com/tekbench/tmcore/internal/journal"
	"github.com/tekbench/tmcore/internal/profile"
	"github.com/tekbench/tmcore/internal/siggen"
	"github.com/tekbench/tmcore/internal/visa"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// options holds the parsed command line flags.
type options struct {
	configPath  string
	showVersion bool
	constraints bool

	channel     int
	function    string
	termination string
	path        string
	polarity    string

	frequency float64
	amplitude float64
	offset    float64
	dutyCycle float64
	symmetry  float64

	// set records which numeric flags were given on the command
	// line. Unset parameters are neither validated nor programmed.
	set map[string]bool

	burstCount int
	noEnable   bool
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("tmcore %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line into an options struct, recording
// which numeric flags were actually given.
func parseFlags() *options {
	opts := &options{set: make(map[string]bool)}

	flag.StringVar(&opts.configPath, "config", getConfigPath(), "path to the YAML configuration file")
	flag.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flag.BoolVar(&opts.constraints, "constraints", false, "print the resolved waveform constraints and exit without programming")

	flag.IntVar(&opts.channel, "channel", 1, "output channel to program")
	flag.StringVar(&opts.function, "function", "sine", "waveform function (sine, square, ramp, pulse, triangle, noise, dc, sinc, arbitrary, clock)")
	flag.StringVar(&opts.termination, "termination", "", "load impedance: fifty or highz (default: leave instrument setting)")
	flag.StringVar(&opts.path, "path", "", "output signal path on instruments that have more than one")
	flag.StringVar(&opts.polarity, "polarity", "", "pulse polarity: normal or inverted")

	flag.Float64Var(&opts.frequency, "frequency", 0, "frequency in Hz")
	flag.Float64Var(&opts.amplitude, "amplitude", 0, "peak-to-peak amplitude in V")
	flag.Float64Var(&opts.offset, "offset", 0, "DC offset in V")
	flag.Float64Var(&opts.dutyCycle, "duty", 0, "pulse duty cycle in percent")
	flag.Float64Var(&opts.symmetry, "symmetry", 0, "ramp symmetry in percent")

	flag.IntVar(&opts.burstCount, "burst", 0, "arm and fire a triggered burst of N cycles")
	flag.BoolVar(&opts.noEnable, "no-enable", false, "program waveform properties without toggling the output")

	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	return opts
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - opts: Parsed command line options
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, opts *options) error {
	// Use default logger until config is loaded
	log := logging.Default()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("starting tmcore",
		"version", version,
		"commit", commit,
		"config", opts.configPath,
	)

	// Open the instrument session
	session, err := openSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening instrument session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing session", "error", closeErr)
		}
	}()

	// Wrap the session with the command journal (if enabled)
	if cfg.Journal.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening journal database: %w", dbErr)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		if healthErr := db.HealthCheck(ctx); healthErr != nil {
			return fmt.Errorf("journal database health check: %w", healthErr)
		}

		repo, repoErr := journal.NewSQLiteRepository(db.DB)
		if repoErr != nil {
			return fmt.Errorf("initialising journal: %w", repoErr)
		}

		wrapped := journal.Wrap(session, repo, log)
		session = wrapped
		log.Info("command journal enabled",
			"path", cfg.Journal.Path,
			"session_id", wrapped.SessionID(),
		)
	}

	// Identify the instrument and build its profile
	ident, err := visa.Identify(ctx, session)
	if err != nil {
		return fmt.Errorf("identifying instrument: %w", err)
	}

	prof, err := profile.New(ident)
	if err != nil {
		return fmt.Errorf("building device profile: %w", err)
	}
	log.Info("instrument identified",
		"model", prof.Model,
		"family", string(prof.Family),
		"channels", prof.Channels,
		"options", strings.Join(prof.Options, ","),
	)

	table, err := constraint.Default()
	if err != nil {
		return fmt.Errorf("loading constraint table: %w", err)
	}

	driver, err := siggen.New(session, prof, table, log)
	if err != nil {
		return fmt.Errorf("creating driver: %w", err)
	}

	if opts.constraints {
		return printConstraints(driver, opts)
	}

	return generate(ctx, driver, opts, log)
}

// printConstraints resolves and prints the applicable ranges without
// touching the instrument state.
func printConstraints(driver *siggen.Driver, opts *options) error {
	lookup := constraint.LookupOptions{
		Path:        opts.path,
		Termination: parseTermination(opts.termination),
	}
	if opts.set["frequency"] {
		lookup.Frequency = &opts.frequency
	}

	entry, err := driver.GetWaveformConstraints(constraint.Function(opts.function), lookup)
	if err != nil {
		return fmt.Errorf("resolving constraints: %w", err)
	}

	fmt.Printf("function:  %s\n", opts.function)
	fmt.Printf("frequency: %g Hz to %g Hz\n", entry.Frequency.Min, entry.Frequency.Max)
	fmt.Printf("amplitude: %g Vpp to %g Vpp\n", entry.Amplitude.Min, entry.Amplitude.Max)
	fmt.Printf("offset:    %g V to %g V\n", entry.Offset.Min, entry.Offset.Max)
	if entry.DutyCycle != nil {
		fmt.Printf("duty:      %g %% to %g %%\n", entry.DutyCycle.Min, entry.DutyCycle.Max)
	}
	if entry.Symmetry != nil {
		fmt.Printf("symmetry:  %g %% to %g %%\n", entry.Symmetry.Min, entry.Symmetry.Max)
	}
	if entry.SampleRate != nil {
		fmt.Printf("sample:    %g Sa/s to %g Sa/s\n", entry.SampleRate.Min, entry.SampleRate.Max)
	}
	if entry.Burst != nil {
		fmt.Printf("burst:     %g to %g cycles\n", entry.Burst.Min, entry.Burst.Max)
	}
	return nil
}

// generate programs the requested waveform, optionally as a triggered
// burst.
func generate(ctx context.Context, driver *siggen.Driver, opts *options, log *logging.Logger) error {
	req := buildRequest(opts)

	switch {
	case opts.burstCount > 0:
		if _, err := driver.SetupBurst(ctx, opts.channel, req, opts.burstCount); err != nil {
			return fmt.Errorf("arming burst: %w", err)
		}
		result, err := driver.GenerateBurst(ctx, opts.channel)
		if err != nil {
			return fmt.Errorf("firing burst: %w", err)
		}
		log.Info("burst complete",
			"channel", result.Channel,
			"count", opts.burstCount,
		)

	case opts.noEnable:
		result, err := driver.SetWaveformProperties(ctx, opts.channel, req)
		if err != nil {
			return fmt.Errorf("setting waveform properties: %w", err)
		}
		log.Info("waveform properties set",
			"channel", result.Channel,
			"output_enabled", result.OutputEnabled,
		)

	default:
		result, err := driver.GenerateFunction(ctx, opts.channel, req)
		if err != nil {
			return fmt.Errorf("generating function: %w", err)
		}
		log.Info("output enabled",
			"channel", result.Channel,
			"function", opts.function,
		)
	}

	return nil
}

// buildRequest converts command line flags into a driver request.
// Only flags that were actually given become request parameters.
func buildRequest(opts *options) siggen.Request {
	req := siggen.Request{
		Function:    constraint.Function(opts.function),
		Termination: parseTermination(opts.termination),
		Path:        opts.path,
	}

	if opts.set["frequency"] {
		req.Frequency = &opts.frequency
	}
	if opts.set["amplitude"] {
		req.Amplitude = &opts.amplitude
	}
	if opts.set["offset"] {
		req.Offset = &opts.offset
	}
	if opts.set["duty"] {
		req.DutyCycle = &opts.dutyCycle
	}
	if opts.set["symmetry"] {
		req.Symmetry = &opts.symmetry
	}

	switch strings.ToLower(opts.polarity) {
	case "inverted", "inv":
		req.Polarity = siggen.PolarityInverted
	case "normal", "norm":
		req.Polarity = siggen.PolarityNormal
	}

	return req
}

// parseTermination maps the flag spelling to the constraint type.
// Unrecognised or empty values leave the instrument setting untouched.
func parseTermination(s string) constraint.Termination {
	switch strings.ToLower(s) {
	case "fifty", "50":
		return constraint.TerminationFiftyOhm
	case "highz", "inf", "infinity":
		return constraint.TerminationHighZ
	default:
		return ""
	}
}

// openSession opens the configured transport.
func openSession(ctx context.Context, cfg *config.Config) (visa.Session, error) {
	switch cfg.Instrument.Transport {
	case "serial":
		return visa.OpenSerial(
			cfg.Instrument.Serial.Device,
			cfg.Instrument.Serial.BaudRate,
			cfg.CommandTimeout(),
		)
	default:
		return visa.DialTCP(ctx, cfg.Instrument.Host, cfg.Instrument.Port, cfg.CommandTimeout())
	}
}

// getConfigPath returns the configuration file path.
// Uses TMCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TMCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
