package gormsession

import (
	"context"
	"database/sql"

	"persistence/internal/core/ports"

	"gorm.io/gorm"
)

// Session coordinates one unit of work on a GORM connection pool.
// It belongs to a single work scope and is not safe for concurrent use.
type Session struct {
	db     *gorm.DB
	tx     *gorm.DB
	sqlDB  *sql.DB
	closed bool
}

// DB returns the handle repositories should use: the transaction while one is
// active, the plain session otherwise. After Close the handle carries
// ports.ErrSessionClosed and every statement on it fails without reaching
// the database.
func (s *Session) DB() *gorm.DB {
	if s.closed {
		closed := s.db.Session(&gorm.Session{NewDB: true})
		_ = closed.AddError(ports.ErrSessionClosed)
		return closed
	}
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Begin starts a database transaction. Calling it while a transaction is
// active does not create a nested one.
func (s *Session) Begin(ctx context.Context) error {
	if s.closed {
		return ports.ErrSessionClosed
	}
	if s.tx != nil {
		return nil
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	s.tx = tx
	return nil
}

// Commit finalizes the active transaction. The transaction is released
// whether or not the commit succeeds.
func (s *Session) Commit(_ context.Context) error {
	if s.tx == nil {
		return ports.ErrNoActiveTransaction
	}

	err := s.tx.Commit().Error
	s.tx = nil
	return err
}

// Rollback discards the active transaction.
func (s *Session) Rollback(_ context.Context) error {
	if s.tx == nil {
		return ports.ErrNoActiveTransaction
	}

	err := s.tx.Rollback().Error
	s.tx = nil
	return err
}

func (s *Session) InTransaction() bool {
	return s.tx != nil
}

func (s *Session) Ping(ctx context.Context) error {
	if s.closed {
		return ports.ErrSessionClosed
	}
	return s.sqlDB.PingContext(ctx)
}

// Close rolls back any active transaction and marks the session unusable.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.tx == nil {
		return nil
	}
	return s.Rollback(context.Background())
}
