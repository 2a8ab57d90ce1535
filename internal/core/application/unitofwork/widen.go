package unitofwork

import (
	"context"

	"persistence/internal/config"
	"persistence/internal/core/ports"
)

// Widen turns a builder of concrete sessions into one of ports.Session, so a
// single Manager[ports.Session] can be backed by whichever driver is
// configured at runtime.
func Widen[S ports.Session](build FactoryBuilder[S]) FactoryBuilder[ports.Session] {
	if build == nil {
		return nil
	}
	return func(ctx context.Context, unit config.Unit) (ports.SessionFactory[ports.Session], error) {
		factory, err := build(ctx, unit)
		if err != nil {
			return nil, err
		}
		return widenedFactory[S]{factory: factory}, nil
	}
}

type widenedFactory[S ports.Session] struct {
	factory ports.SessionFactory[S]
}

func (w widenedFactory[S]) OpenSession(ctx context.Context) (ports.Session, error) {
	session, err := w.factory.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (w widenedFactory[S]) Close() error {
	return w.factory.Close()
}
