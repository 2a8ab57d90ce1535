package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"persistence/internal/config"
	"persistence/internal/core/ports"
	"persistence/internal/metrics"
)

var (
	// ErrWorkAlreadyBegun is returned by Begin when the scope already holds a session.
	ErrWorkAlreadyBegun = errors.New(
		"work already begun in this scope: Begin was called twice without a balancing End",
	)

	// ErrOutsideUnitOfWork is returned by Get when no session could be established.
	ErrOutsideUnitOfWork = errors.New(
		"session requested outside a unit of work: call Begin first or wrap the call in Transactional",
	)

	// ErrNoWorkScope is returned when the context carries no work scope.
	ErrNoWorkScope = errors.New("context carries no work scope: derive it with NewScope")
)

// Manager hands out one session per work scope and owns the lifecycle of the
// shared session factory. It implements ports.UnitOfWork and ports.PersistService.
type Manager[S ports.Session] struct {
	unit     config.Unit
	provider *Provider[S]
	logger   *slog.Logger
	metrics  *metrics.Collector

	// stopMu serializes Stop with itself only; scope operations never take it.
	stopMu sync.Mutex

	sessions sync.Map // ScopeID -> S
}

// Option customizes a Manager.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// NewManager creates a manager for the named persistence unit. properties
// override the unit's catalog definition and may be nil. An empty unit name
// fails with errs.ErrValueIsRequired.
func NewManager[S ports.Session](
	unitName string,
	properties map[string]string,
	build FactoryBuilder[S],
	opts ...Option,
) (*Manager[S], error) {
	unit, err := config.NewUnit(unitName, properties)
	if err != nil {
		return nil, err
	}
	if build == nil {
		return nil, errors.New("session factory builder is required")
	}

	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager[S]{
		unit:     unit,
		provider: NewProvider(unit, build),
		logger:   o.logger.With("component", "unit_of_work", "unit", unit.Name()),
		metrics:  o.metrics,
	}
	m.provider.onBuild = func(ctx context.Context) {
		m.metrics.FactoryStarted()
		m.logger.InfoContext(ctx, "Session factory started")
	}
	m.provider.onClose = func() {
		m.metrics.FactoryStopped()
		m.logger.Info("Session factory stopped")
	}
	return m, nil
}

// Unit returns the persistence unit the manager serves.
func (m *Manager[S]) Unit() config.Unit {
	return m.unit
}

// Start builds the shared session factory if it does not exist yet.
// Calling it again is a cheap no-op.
func (m *Manager[S]) Start(ctx context.Context) error {
	if _, err := m.provider.Get(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Session factory failed to start", "error", err)
		return err
	}
	return nil
}

// Stop closes the shared session factory exactly once. It is safe to call
// repeatedly and from several goroutines; only the call that actually closes
// the factory records it. Sessions still held by working scopes are not ended
// and become unusable.
//
// Stop before the factory was ever built does not build it: the manager is
// closed for good and later Start, Begin and Get fail with
// ports.ErrFactoryClosed.
func (m *Manager[S]) Stop() error {
	m.stopMu.Lock()
	defer m.stopMu.Unlock()

	if working := m.workingScopes(); working > 0 {
		m.logger.Warn("Stopping session factory while scopes are still working", "scopes", working)
	}

	if err := m.provider.Close(); err != nil {
		m.logger.Error("Session factory failed to stop", "error", err)
		return err
	}
	return nil
}

// IsWorking reports whether the scope of ctx holds an active session.
// A context without a scope is never working.
func (m *Manager[S]) IsWorking(ctx context.Context) bool {
	id, ok := ScopeFrom(ctx)
	if !ok {
		return false
	}
	_, found := m.sessions.Load(id)
	return found
}

// Begin opens a session for the scope of ctx, starting the factory if needed.
// It fails with ErrWorkAlreadyBegun when the scope already holds a session,
// leaving that session untouched. Factory errors are returned unchanged.
func (m *Manager[S]) Begin(ctx context.Context) error {
	id, ok := ScopeFrom(ctx)
	if !ok {
		return ErrNoWorkScope
	}

	if _, found := m.sessions.Load(id); found {
		return ErrWorkAlreadyBegun
	}

	session, err := m.open(ctx)
	if err != nil {
		m.metrics.BeginFailed()
		return err
	}

	// Two goroutines sharing a scope may race past the check above.
	if _, loaded := m.sessions.LoadOrStore(id, session); loaded {
		_ = session.Close()
		return ErrWorkAlreadyBegun
	}

	m.metrics.UnitBegun()
	m.logger.DebugContext(ctx, "Unit of work begun", "scope", id)
	return nil
}

func (m *Manager[S]) open(ctx context.Context) (S, error) {
	var zero S

	factory, err := m.provider.Get(ctx)
	if err != nil {
		return zero, err
	}

	return factory.OpenSession(ctx)
}

// End closes the session of the scope of ctx. It is a no-op when the scope
// holds no session. The slot is cleared even if closing the session fails.
func (m *Manager[S]) End(ctx context.Context) error {
	id, ok := ScopeFrom(ctx)
	if !ok {
		return nil
	}

	value, found := m.sessions.LoadAndDelete(id)
	if !found {
		return nil
	}

	m.metrics.UnitEnded()
	m.logger.DebugContext(ctx, "Unit of work ended", "scope", id)

	if err := value.(S).Close(); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// Get returns the session of the scope of ctx, beginning a unit of work first
// if none is active. Repeated calls return the same session until End.
func (m *Manager[S]) Get(ctx context.Context) (S, error) {
	var zero S

	if !m.IsWorking(ctx) {
		if err := m.Begin(ctx); err != nil && !errors.Is(err, ErrWorkAlreadyBegun) {
			return zero, err
		}
	}

	id, ok := ScopeFrom(ctx)
	if !ok {
		return zero, ErrNoWorkScope
	}

	value, found := m.sessions.Load(id)
	if !found {
		return zero, ErrOutsideUnitOfWork
	}
	return value.(S), nil
}

func (m *Manager[S]) workingScopes() int {
	n := 0
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (m *Manager[S]) String() string {
	return fmt.Sprintf("Manager[unit: %s, provider: %s]", m.unit.Name(), m.provider)
}
