package sqlsession

import (
	"context"
	"database/sql"
	"errors"

	"persistence/internal/core/ports"
)

// Session is a unit of work pinned to one pooled connection.
// It belongs to a single work scope and is not safe for concurrent use.
type Session struct {
	conn   *sql.Conn
	tx     *sql.Tx
	closed bool
}

func (s *Session) Begin(ctx context.Context) error {
	if s.closed {
		return ports.ErrSessionClosed
	}
	if s.tx != nil {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	s.tx = tx
	return nil
}

func (s *Session) Commit(_ context.Context) error {
	if s.tx == nil {
		return ports.ErrNoActiveTransaction
	}

	err := s.tx.Commit()
	s.tx = nil
	return err
}

func (s *Session) Rollback(_ context.Context) error {
	if s.tx == nil {
		return ports.ErrNoActiveTransaction
	}

	err := s.tx.Rollback()
	s.tx = nil
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (s *Session) InTransaction() bool {
	return s.tx != nil
}

func (s *Session) Ping(ctx context.Context) error {
	if s.closed {
		return ports.ErrSessionClosed
	}
	return s.conn.PingContext(ctx)
}

// ExecContext runs query in the active transaction, or directly on the
// session's connection when none is active.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.closed {
		return nil, ports.ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx.ExecContext(ctx, query, args...)
	}
	return s.conn.ExecContext(ctx, query, args...)
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.closed {
		return nil, ports.ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx.QueryContext(ctx, query, args...)
	}
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext returns a row whose Scan reports ports.ErrSessionClosed
// when the session is closed.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	if s.closed {
		return &Row{err: ports.ErrSessionClosed}
	}
	if s.tx != nil {
		return &Row{row: s.tx.QueryRowContext(ctx, query, args...)}
	}
	return &Row{row: s.conn.QueryRowContext(ctx, query, args...)}
}

// Close rolls back any active transaction and returns the connection to the pool.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var rbErr error
	if s.tx != nil {
		rbErr = s.Rollback(context.Background())
	}
	return errors.Join(rbErr, s.conn.Close())
}

// Row wraps *sql.Row so a closed session can report its error on Scan.
type Row struct {
	row *sql.Row
	err error
}

func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.row.Scan(dest...)
}

func (r *Row) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.row.Err()
}
