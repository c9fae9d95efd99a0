package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tekbench/tmcore/internal/infrastructure/logging"
	"github.com/tekbench/tmcore/internal/visa"
)

// Session wraps an instrument session and journals every command and
// query that passes through it. The wrapped session is returned
// unchanged in behaviour: journal failures are logged, never allowed
// to fail instrument traffic.
type Session struct {
	inner     visa.Session
	repo      Repository
	logger    *logging.Logger
	sessionID string
}

// Wrap returns a session that journals all traffic under a fresh
// session ID.
func Wrap(inner visa.Session, repo Repository, logger *logging.Logger) *Session {
	id := "ses-" + uuid.NewString()[:8]
	return &Session{
		inner:     inner,
		repo:      repo,
		logger:    logger.With("component", "journal", "session_id", id),
		sessionID: id,
	}
}

// SessionID returns the journal session identifier.
func (s *Session) SessionID() string {
	return s.sessionID
}

// Write forwards to the wrapped session and journals the command.
func (s *Session) Write(ctx context.Context, format string, a ...any) error {
	cmd := format
	if len(a) > 0 {
		cmd = fmt.Sprintf(format, a...)
	}

	err := s.inner.Write(ctx, "%s", cmd)
	s.record(ctx, &Entry{
		SessionID: s.sessionID,
		Direction: DirectionWrite,
		Command:   cmd,
		Error:     errText(err),
	})
	return err
}

// Query forwards to the wrapped session and journals the command and
// its response.
func (s *Session) Query(ctx context.Context, cmd string) (string, error) {
	resp, err := s.inner.Query(ctx, cmd)
	s.record(ctx, &Entry{
		SessionID: s.sessionID,
		Direction: DirectionQuery,
		Command:   cmd,
		Response:  resp,
		Error:     errText(err),
	})
	return resp, err
}

// Close closes the wrapped session.
func (s *Session) Close() error {
	return s.inner.Close()
}

func (s *Session) record(ctx context.Context, entry *Entry) {
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("journal write failed", "command", entry.Command, "error", err)
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
