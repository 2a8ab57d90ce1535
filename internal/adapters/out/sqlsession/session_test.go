package sqlsession_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"persistence/internal/adapters/out/sqlsession"
	"persistence/internal/config"
	"persistence/internal/core/application/unitofwork"
	"persistence/internal/core/ports"
	"persistence/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteSettings(t *testing.T) config.Settings {
	t.Helper()
	return config.Settings{
		Unit:         "orders-unit",
		Driver:       config.DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "orders.db") + "?_pragma=busy_timeout=5000",
		MaxOpenConns: 4,
	}
}

func newSQLiteManager(t *testing.T) *unitofwork.Manager[*sqlsession.Session] {
	t.Helper()
	settings := sqliteSettings(t)
	m, err := unitofwork.NewManager("orders-unit",
		map[string]string{"driver": settings.Driver, "dsn": settings.DSN, "max_open_conns": "4"},
		sqlsession.Builder(nil))
	require.NoError(t, err)
	require.NoError(t, m.Start(t.Context()))
	t.Cleanup(func() { _ = m.Stop() })

	err = unitofwork.Transactional(unitofwork.NewScope(t.Context()), m,
		func(ctx context.Context, s *sqlsession.Session) error {
			_, execErr := s.ExecContext(ctx, `CREATE TABLE orders (id TEXT PRIMARY KEY, status TEXT NOT NULL)`)
			return execErr
		})
	require.NoError(t, err)
	return m
}

func countOrders(t *testing.T, m *unitofwork.Manager[*sqlsession.Session]) int {
	t.Helper()
	var n int
	err := unitofwork.Transactional(unitofwork.NewScope(t.Context()), m,
		func(ctx context.Context, s *sqlsession.Session) error {
			return s.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
		})
	require.NoError(t, err)
	return n
}

func TestNewFactory_RejectsUnknownDriver(t *testing.T) {
	_, err := sqlsession.NewFactory(t.Context(), config.Settings{Driver: config.DriverGormPostgres, DSN: "x"})

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestFactory_SQLiteLifecycle(t *testing.T) {
	factory, err := sqlsession.NewFactory(t.Context(), sqliteSettings(t))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", factory.Driver())

	session, err := factory.OpenSession(t.Context())
	require.NoError(t, err)
	require.NoError(t, session.Ping(t.Context()))
	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	require.NoError(t, factory.Close())
	require.NoError(t, factory.Close())

	_, err = factory.OpenSession(t.Context())
	require.ErrorIs(t, err, ports.ErrFactoryClosed)
}

func TestSession_TransactionErrors(t *testing.T) {
	factory, err := sqlsession.NewFactory(t.Context(), sqliteSettings(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })
	session, err := factory.OpenSession(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	require.ErrorIs(t, session.Commit(t.Context()), ports.ErrNoActiveTransaction)
	require.ErrorIs(t, session.Rollback(t.Context()), ports.ErrNoActiveTransaction)

	require.NoError(t, session.Begin(t.Context()))
	require.NoError(t, session.Begin(t.Context()), "Begin while active should not nest")
	assert.True(t, session.InTransaction())
	require.NoError(t, session.Rollback(t.Context()))
	assert.False(t, session.InTransaction())
}

func TestSession_ClosedSessionRejectsWork(t *testing.T) {
	factory, err := sqlsession.NewFactory(t.Context(), sqliteSettings(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })
	session, err := factory.OpenSession(t.Context())
	require.NoError(t, err)
	require.NoError(t, session.Close())

	_, err = session.ExecContext(t.Context(), `SELECT 1`)
	require.ErrorIs(t, err, ports.ErrSessionClosed)
	_, err = session.QueryContext(t.Context(), `SELECT 1`)
	require.ErrorIs(t, err, ports.ErrSessionClosed)
	var one int
	require.ErrorIs(t, session.QueryRowContext(t.Context(), `SELECT 1`).Scan(&one), ports.ErrSessionClosed)
	require.ErrorIs(t, session.Begin(t.Context()), ports.ErrSessionClosed)
	require.ErrorIs(t, session.Ping(t.Context()), ports.ErrSessionClosed)
}

func TestTransactional_CommitAndRollback(t *testing.T) {
	m := newSQLiteManager(t)

	err := unitofwork.Transactional(unitofwork.NewScope(t.Context()), m,
		func(ctx context.Context, s *sqlsession.Session) error {
			_, execErr := s.ExecContext(ctx, `INSERT INTO orders (id, status) VALUES (?, ?)`, "o-1", "created")
			return execErr
		})
	require.NoError(t, err)

	errAbort := errors.New("abort")
	err = unitofwork.Transactional(unitofwork.NewScope(t.Context()), m,
		func(ctx context.Context, s *sqlsession.Session) error {
			if _, execErr := s.ExecContext(ctx, `INSERT INTO orders (id, status) VALUES (?, ?)`, "o-2", "created"); execErr != nil {
				return execErr
			}
			return errAbort
		})
	require.ErrorIs(t, err, errAbort)

	assert.Equal(t, 1, countOrders(t, m))
}

func TestSession_PinsOneConnectionPerUnit(t *testing.T) {
	m := newSQLiteManager(t)
	ctx := unitofwork.NewScope(t.Context())
	require.NoError(t, m.Begin(ctx))
	t.Cleanup(func() { _ = m.End(ctx) })

	session, err := m.Get(ctx)
	require.NoError(t, err)
	// Temporary tables are private to the connection that created them.
	_, err = session.ExecContext(ctx, `CREATE TEMP TABLE scratch (n INTEGER)`)
	require.NoError(t, err)
	_, err = session.ExecContext(ctx, `INSERT INTO scratch (n) VALUES (1), (2)`)
	require.NoError(t, err)

	again, err := m.Get(ctx)
	require.NoError(t, err)
	var n int
	require.NoError(t, again.QueryRowContext(ctx, `SELECT COUNT(*) FROM scratch`).Scan(&n))
	assert.Equal(t, 2, n)

	rows, err := again.QueryContext(ctx, `SELECT n FROM scratch ORDER BY n`)
	require.NoError(t, err)
	defer rows.Close()
	var got []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		got = append(got, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int{1, 2}, got)
}

func TestSession_EndRollsBackOpenTransaction(t *testing.T) {
	m := newSQLiteManager(t)
	ctx := unitofwork.NewScope(t.Context())
	session, err := m.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, session.Begin(ctx))
	_, err = session.ExecContext(ctx, `INSERT INTO orders (id, status) VALUES (?, ?)`, "o-1", "created")
	require.NoError(t, err)

	require.NoError(t, m.End(ctx))

	assert.Equal(t, 0, countOrders(t, m))
}

func TestManager_StopInvalidatesSQLiteFactory(t *testing.T) {
	m := newSQLiteManager(t)

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())

	require.ErrorIs(t, m.Begin(unitofwork.NewScope(t.Context())), ports.ErrFactoryClosed)
}
