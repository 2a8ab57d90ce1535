package unitofwork

import (
	"context"
	"errors"
	"fmt"

	"persistence/internal/core/ports"
)

// TxOption tunes which errors roll a transaction back.
type TxOption func(*txRules)

type txRules struct {
	rollbackOn []error
	ignore     []error
}

// RollbackOn restricts rollback to errors matching one of targets (errors.Is).
// Other errors commit the transaction but are still returned to the caller.
func RollbackOn(targets ...error) TxOption {
	return func(r *txRules) {
		r.rollbackOn = append(r.rollbackOn, targets...)
	}
}

// Ignore lists errors that commit the transaction although fn failed.
// Ignore takes precedence over RollbackOn.
func Ignore(targets ...error) TxOption {
	return func(r *txRules) {
		r.ignore = append(r.ignore, targets...)
	}
}

func (r txRules) shouldRollback(err error) bool {
	if matchesAny(err, r.ignore) {
		return false
	}
	if len(r.rollbackOn) == 0 {
		return true
	}
	return matchesAny(err, r.rollbackOn)
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Transactional runs fn inside a unit of work and a transaction of the scope
// of ctx.
//
// The unit of work is begun only if the scope has none and ended only if this
// call began it. A transaction already active on the session is joined:
// the outermost call decides between commit and rollback. Otherwise a new
// transaction is committed when fn returns nil and rolled back when fn fails
// (subject to opts) or panics. The error of fn is always returned.
func Transactional[S ports.Session](
	ctx context.Context,
	m *Manager[S],
	fn func(ctx context.Context, session S) error,
	opts ...TxOption,
) (err error) {
	var rules txRules
	for _, opt := range opts {
		opt(&rules)
	}

	began := false
	if !m.IsWorking(ctx) {
		if err = m.Begin(ctx); err != nil {
			return err
		}
		began = true
	}
	if began {
		defer func() {
			if endErr := m.End(ctx); endErr != nil {
				err = errors.Join(err, endErr)
			}
		}()
	}

	session, err := m.Get(ctx)
	if err != nil {
		return err
	}

	if session.InTransaction() {
		return fn(ctx, session)
	}

	if err = session.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed && session.InTransaction() {
			_ = session.Rollback(ctx)
		}
	}()

	if err = fn(ctx, session); err != nil {
		if rules.shouldRollback(err) {
			if rbErr := session.Rollback(ctx); rbErr != nil {
				return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
			}
			return err
		}
	}

	committed = true
	if commitErr := session.Commit(ctx); commitErr != nil {
		return errors.Join(err, fmt.Errorf("failed to commit transaction: %w", commitErr))
	}
	return err
}
