package visa

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/multierr"
)

// SerialSession is a SCPI session over a serial line.
//
// The framing matches TCPSession: linefeed-terminated commands and
// responses. Read timeouts are enforced by the port itself rather than
// by deadlines.
type SerialSession struct {
	mu     sync.Mutex
	port   serial.Port
	reader *bufio.Reader
	closed bool
}

// OpenSerial opens a serial session on the given device.
//
// Parameters:
//   - device: Serial device path (e.g. "/dev/ttyUSB0")
//   - baudRate: Line speed (Tektronix USB-serial default: 115200)
//   - timeout: Read timeout applied to every Query
//
// Returns:
//   - *SerialSession: Open session
//   - error: If the port cannot be opened or configured
func OpenSerial(device string, baudRate int, timeout time.Duration) (*SerialSession, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", device, err)
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		closeErr := port.Close()
		return nil, multierr.Append(
			fmt.Errorf("setting read timeout on %s: %w", device, err),
			closeErr,
		)
	}

	return &SerialSession{
		port:   port,
		reader: bufio.NewReader(port),
	}, nil
}

// Write sends a single command to the instrument. The context is
// checked before the write; cancellation cannot interrupt a write
// already handed to the port.
func (s *SerialSession) Write(ctx context.Context, format string, a ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := format
	if len(a) > 0 {
		cmd = fmt.Sprintf(format, a...)
	}

	if _, err := s.port.Write([]byte(strings.TrimSpace(cmd) + "\n")); err != nil {
		return fmt.Errorf("writing command %q: %w", cmd, err)
	}
	return nil
}

// Query sends a command and reads one linefeed-terminated response.
func (s *SerialSession) Query(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := s.port.Write([]byte(strings.TrimSpace(cmd) + "\n")); err != nil {
		return "", fmt.Errorf("writing query %q: %w", cmd, err)
	}

	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading response to %q: %w", cmd, err)
	}

	resp := strings.TrimSpace(line)
	if resp == "" {
		return "", ErrEmptyResponse
	}
	return resp, nil
}

// Close drains pending output and closes the port. Drain and close
// errors are aggregated so neither masks the other.
func (s *SerialSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return multierr.Combine(
		s.port.Drain(),
		s.port.Close(),
	)
}
