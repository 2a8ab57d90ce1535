// Package unitofwork manages persistence sessions per work scope.
//
// A work scope is the Go counterpart of "the current thread": a random
// identifier carried by a context.Context. Every call made with that context
// (or a context derived from it) sees the same unit of work, and distinct
// scopes never share a session.
//
// The Manager owns two lifecycles:
//
//   - the process-wide session factory, built lazily on Start (or on the
//     first Begin) and closed exactly once on Stop;
//   - the per-scope session, opened by Begin and closed by End.
//
// Basic usage:
//
//	mgr, err := unitofwork.NewManager("orders-unit", nil, sqlsession.Builder(catalog))
//	if err != nil {
//	    return err
//	}
//	if err = mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
//
//	ctx = unitofwork.NewScope(ctx)
//	err = unitofwork.Transactional(ctx, mgr, func(ctx context.Context, s *sqlsession.Session) error {
//	    _, err := s.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", "shipped", id)
//	    return err
//	})
//
// Transactional begins a unit of work only when the scope has none, and ends
// it only if it began it, so a caller managing a wider unit of work with
// Begin/End keeps its session across several transactional calls.
//
// Stop does not drain scopes that are still working. Their sessions become
// unusable once the factory is closed; callers are expected to End every unit
// of work before stopping.
package unitofwork
