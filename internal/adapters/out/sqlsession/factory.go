// Package sqlsession provides database/sql sessions for the unit-of-work
// manager. Each session pins a single connection from the pool for its whole
// lifetime, so statements of one unit of work always run on the same
// connection. PostgreSQL is reached through github.com/lib/pq and SQLite
// through the CGO-free modernc.org/sqlite driver.
package sqlsession

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"persistence/internal/config"
	"persistence/internal/core/application/unitofwork"
	"persistence/internal/core/ports"
	"persistence/internal/pkg/errs"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Factory opens connection-pinned sessions on a shared *sql.DB.
type Factory struct {
	db     *sql.DB
	driver string
	closed atomic.Bool
}

// NewFactory opens the pool described by settings and verifies connectivity.
func NewFactory(ctx context.Context, settings config.Settings) (*Factory, error) {
	var driverName string
	switch settings.Driver {
	case config.DriverPostgres:
		driverName = "postgres"
	case config.DriverSQLite:
		driverName = "sqlite"
	default:
		return nil, errs.NewValueIsInvalidErrorWithCause("driver",
			fmt.Errorf("sql sessions support postgres and sqlite, got %q", settings.Driver))
	}

	db, err := sql.Open(driverName, settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}

	if settings.MaxOpenConns > 0 {
		db.SetMaxOpenConns(settings.MaxOpenConns)
	}
	if settings.MaxIdleConns > 0 {
		db.SetMaxIdleConns(settings.MaxIdleConns)
	}
	if settings.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(settings.ConnMaxLifetime)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	return &Factory{db: db, driver: driverName}, nil
}

// OpenSession checks a connection out of the pool for a new session.
func (f *Factory) OpenSession(ctx context.Context) (*Session, error) {
	if f.closed.Load() {
		return nil, ports.ErrFactoryClosed
	}

	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	return &Session{conn: conn}, nil
}

// Close closes the pool. Repeated calls are no-ops.
func (f *Factory) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.db.Close()
}

// Driver returns the database/sql driver name in use.
func (f *Factory) Driver() string {
	return f.driver
}

// Builder resolves a unit against catalog and builds its database/sql factory.
func Builder(catalog *config.Catalog) unitofwork.FactoryBuilder[*Session] {
	return func(ctx context.Context, unit config.Unit) (ports.SessionFactory[*Session], error) {
		settings, err := catalog.Resolve(unit)
		if err != nil {
			return nil, err
		}

		factory, err := NewFactory(ctx, settings)
		if err != nil {
			return nil, err
		}
		return factory, nil
	}
}
