package unitofwork

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"persistence/internal/config"
	"persistence/internal/core/ports"
)

// FactoryBuilder constructs the session factory for a persistence unit.
type FactoryBuilder[S ports.Session] func(ctx context.Context, unit config.Unit) (ports.SessionFactory[S], error)

type providerState int

const (
	stateUninitialized providerState = iota
	stateReady
	stateClosed
)

func (s providerState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateReady:
		return "ready"
	case stateClosed:
		return "closed"
	default:
		return fmt.Sprintf("providerState(%d)", int(s))
	}
}

// Provider lazily builds a single session factory and hands out the same
// instance to every caller. After Close it keeps returning the closed factory:
// sessions opened from it fail, but Get itself does not.
type Provider[S ports.Session] struct {
	unit    config.Unit
	build   FactoryBuilder[S]
	onBuild func(ctx context.Context)
	onClose func()

	mu      sync.Mutex
	state   providerState
	factory ports.SessionFactory[S]

	// ready is published once the factory is built, letting Get skip the lock.
	ready atomic.Pointer[ports.SessionFactory[S]]
}

func NewProvider[S ports.Session](unit config.Unit, build FactoryBuilder[S]) *Provider[S] {
	return &Provider[S]{
		unit:  unit,
		build: build,
	}
}

// Get returns the shared factory, building it on first use. A failed build
// leaves the provider uninitialized so that a later Get retries.
func (p *Provider[S]) Get(ctx context.Context) (ports.SessionFactory[S], error) {
	if f := p.ready.Load(); f != nil {
		return *f, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateReady:
		return p.factory, nil
	case stateClosed:
		return nil, fmt.Errorf("persistence unit %s: %w", p.unit.Name(), ports.ErrFactoryClosed)
	}

	factory, err := p.build(ctx, p.unit)
	if err != nil {
		return nil, fmt.Errorf("failed to build session factory for %s: %w", p.unit.Name(), err)
	}

	p.factory = factory
	p.state = stateReady
	p.ready.Store(&factory)
	if p.onBuild != nil {
		p.onBuild(ctx)
	}
	return factory, nil
}

// Close closes the factory once. Later calls are no-ops. Closing a provider
// that never built its factory just marks it closed. onClose runs only when
// a built factory was closed successfully.
func (p *Provider[S]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.state
	p.state = stateClosed
	if prev != stateReady {
		return nil
	}
	if err := p.factory.Close(); err != nil {
		return err
	}
	if p.onClose != nil {
		p.onClose()
	}
	return nil
}

// Built reports whether the factory has been constructed.
func (p *Provider[S]) Built() bool {
	return p.ready.Load() != nil
}

func (p *Provider[S]) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("Provider[unit: %s, state: %s]", p.unit.Name(), p.state)
}
