// Package ports defines the contracts between the unit-of-work core and the
// persistence providers behind it, enabling dependency inversion and testability.
package ports

import (
	"context"
	"errors"
)

var (
	// ErrFactoryClosed is returned when a session is requested from a closed factory.
	ErrFactoryClosed = errors.New("session factory is closed")

	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNoActiveTransaction is returned by Commit and Rollback without a prior Begin.
	ErrNoActiveTransaction = errors.New("no active transaction")
)

// Session is an opaque handle to one unit of persistence work.
// It is owned by a single work scope and must not be shared between scopes.
type Session interface {
	// Begin starts the session's underlying database transaction.
	// Calling Begin while a transaction is active is a no-op.
	Begin(ctx context.Context) error

	// Commit commits the active transaction.
	// Returns ErrNoActiveTransaction if none is active.
	Commit(ctx context.Context) error

	// Rollback rolls back the active transaction.
	// Returns ErrNoActiveTransaction if none is active.
	Rollback(ctx context.Context) error

	// InTransaction reports whether a transaction is active.
	InTransaction() bool

	// Ping verifies the session can still reach the database.
	Ping(ctx context.Context) error

	// Close releases the session, rolling back any active transaction.
	Close() error
}

// SessionFactory produces sessions. It is shared process-wide and expensive
// to build; closing it invalidates every session it produced.
type SessionFactory[S Session] interface {
	// OpenSession opens a new session. Returns ErrFactoryClosed after Close.
	OpenSession(ctx context.Context) (S, error)

	// Close releases the factory's resources. Repeated calls are no-ops.
	Close() error
}

// UnitOfWork controls the unit of work of the calling work scope.
type UnitOfWork interface {
	// Begin opens a session for the scope. Fails if one is already active.
	Begin(ctx context.Context) error

	// End closes the scope's session. A no-op when nothing is active.
	End(ctx context.Context) error

	// IsWorking reports whether the scope holds an active session.
	IsWorking(ctx context.Context) bool
}

// PersistService controls the lifecycle of the shared session factory.
type PersistService interface {
	Start(ctx context.Context) error
	Stop() error
}
