package visa

import (
	"context"
)

// Session is a message-based connection to one instrument.
//
// Write sends a single SCPI command; format and a are combined with
// fmt.Sprintf semantics. Query sends a command and returns the response
// with the line terminator and surrounding whitespace removed.
//
// Implementations must be safe for concurrent use; a Query is atomic
// with respect to other calls on the same session.
type Session interface {
	Write(ctx context.Context, format string, a ...any) error
	Query(ctx context.Context, cmd string) (string, error)
	Close() error
}

// querier adapts a Session to the gotmc/query.Querier interface, which
// has no context parameter. The context is captured at construction and
// applies to every query issued through the adapter.
type querier struct {
	ctx     context.Context
	session Session
}

func (q querier) Query(cmd string) (string, error) {
	return q.session.Query(q.ctx, cmd)
}
