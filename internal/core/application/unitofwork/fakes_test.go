package unitofwork_test

import (
	"context"
	"sync"
	"sync/atomic"

	"persistence/internal/config"
	"persistence/internal/core/application/unitofwork"
	"persistence/internal/core/ports"
)

type fakeSession struct {
	id int

	mu        sync.Mutex
	calls     []string
	inTx      bool
	closed    bool
	commitErr error
	closeErr  error
}

func (s *fakeSession) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *fakeSession) Begin(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.ErrSessionClosed
	}
	s.record("begin")
	s.inTx = true
	return nil
}

func (s *fakeSession) Commit(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inTx {
		return ports.ErrNoActiveTransaction
	}
	s.record("commit")
	s.inTx = false
	return s.commitErr
}

func (s *fakeSession) Rollback(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inTx {
		return ports.ErrNoActiveTransaction
	}
	s.record("rollback")
	s.inTx = false
	return nil
}

func (s *fakeSession) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx
}

func (s *fakeSession) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.ErrSessionClosed
	}
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("close")
	s.closed = true
	s.inTx = false
	return s.closeErr
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeFactory struct {
	mu       sync.Mutex
	opened   []*fakeSession
	openErr  error
	closeErr error

	closes atomic.Int32
	closed atomic.Bool
}

func (f *fakeFactory) OpenSession(context.Context) (*fakeSession, error) {
	if f.closed.Load() {
		return nil, ports.ErrFactoryClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}

	s := &fakeSession{id: len(f.opened) + 1}
	f.opened = append(f.opened, s)
	return s, nil
}

func (f *fakeFactory) Close() error {
	f.closes.Add(1)
	f.closed.Store(true)
	return f.closeErr
}

func (f *fakeFactory) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

// builderFor returns a builder that always yields factory and counts builds.
func builderFor(factory *fakeFactory, builds *atomic.Int32) unitofwork.FactoryBuilder[*fakeSession] {
	return func(context.Context, config.Unit) (ports.SessionFactory[*fakeSession], error) {
		builds.Add(1)
		return factory, nil
	}
}
