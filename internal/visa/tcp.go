package visa

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// TCPSession is a raw-socket SCPI session over TCP/IP.
//
// Commands are terminated with a single linefeed; responses are read up
// to the next linefeed. Tektronix instruments expose this protocol on
// port 4000.
type TCPSession struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
	closed  bool
}

// DialTCP opens a raw-socket session to the instrument at host:port.
//
// Parameters:
//   - ctx: Context for the connection attempt
//   - host: Instrument hostname or IP address
//   - port: TCP port (Tektronix default: 4000)
//   - timeout: Per-command I/O deadline applied to every Write and Query
//
// Returns:
//   - *TCPSession: Connected session
//   - error: If the connection cannot be established
func DialTCP(ctx context.Context, host string, port int, timeout time.Duration) (*TCPSession, error) {
	var d net.Dialer
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	return NewTCPSession(conn, timeout), nil
}

// NewTCPSession wraps an established connection in a session.
// Tests use this with in-memory pipes; production code uses DialTCP.
func NewTCPSession(conn net.Conn, timeout time.Duration) *TCPSession {
	return &TCPSession{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}
}

// Write sends a single command to the instrument.
func (s *TCPSession) Write(ctx context.Context, format string, a ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	cmd := format
	if len(a) > 0 {
		cmd = fmt.Sprintf(format, a...)
	}

	if err := s.setDeadline(ctx); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.conn, "%s\n", strings.TrimSpace(cmd)); err != nil {
		return fmt.Errorf("writing command %q: %w", cmd, err)
	}
	return nil
}

// Query sends a command and reads one linefeed-terminated response.
func (s *TCPSession) Query(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}

	if err := s.setDeadline(ctx); err != nil {
		return "", err
	}

	if _, err := fmt.Fprintf(s.conn, "%s\n", strings.TrimSpace(cmd)); err != nil {
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

// Close shuts down the connection. Subsequent calls return ErrClosed
// from Write and Query; Close itself is idempotent.
func (s *TCPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}

// setDeadline applies the session timeout, tightened by the context
// deadline when that is sooner.
func (s *TCPSession) setDeadline(ctx context.Context) error {
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("setting deadline: %w", err)
	}
	return nil
}
