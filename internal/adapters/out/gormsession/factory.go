// Package gormsession provides GORM-backed sessions for the unit-of-work manager.
//
// A Factory wraps one *gorm.DB connection pool for the lifetime of the
// service. Each Session is a fresh gorm session on that pool; repository code
// reaches the database through Session.DB, which returns the transaction
// handle while a transaction is active:
//
//	err := unitofwork.Transactional(ctx, mgr, func(ctx context.Context, s *gormsession.Session) error {
//	    return s.DB().WithContext(ctx).Create(&orderDTO).Error
//	})
//
// Closing the Factory closes the pool, after which every Session it produced
// fails on use.
package gormsession

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"persistence/internal/config"
	"persistence/internal/core/application/unitofwork"
	"persistence/internal/core/ports"
	"persistence/internal/pkg/errs"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Factory opens GORM sessions on a shared connection pool.
type Factory struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	closed atomic.Bool
}

// NewFactory connects to PostgreSQL through GORM using settings.
func NewFactory(ctx context.Context, settings config.Settings) (*Factory, error) {
	switch settings.Driver {
	case config.DriverGormPostgres, config.DriverPostgres:
	default:
		return nil, errs.NewValueIsInvalidErrorWithCause("driver",
			fmt.Errorf("gorm sessions support postgres, got %q", settings.Driver))
	}

	db, err := gorm.Open(postgres.Open(settings.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(settings.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	return NewFactoryFromDB(ctx, db, settings)
}

// NewFactoryFromDB wraps an already opened *gorm.DB, applying the pool
// settings and verifying connectivity.
func NewFactoryFromDB(ctx context.Context, db *gorm.DB, settings config.Settings) (*Factory, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	if settings.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(settings.MaxOpenConns)
	}
	if settings.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(settings.MaxIdleConns)
	}
	if settings.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(settings.ConnMaxLifetime)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Factory{db: db, sqlDB: sqlDB}, nil
}

// OpenSession starts a new GORM session bound to ctx.
func (f *Factory) OpenSession(ctx context.Context) (*Session, error) {
	if f.closed.Load() {
		return nil, ports.ErrFactoryClosed
	}

	return &Session{
		db:    f.db.Session(&gorm.Session{NewDB: true, Context: ctx}),
		sqlDB: f.sqlDB,
	}, nil
}

// Close closes the connection pool. Repeated calls are no-ops.
func (f *Factory) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.sqlDB.Close()
}

// Builder resolves a unit against catalog and builds its GORM factory.
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

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}
