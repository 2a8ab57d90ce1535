package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"persistence/internal/adapters/in/http"
	"persistence/internal/adapters/out/gormsession"
	"persistence/internal/adapters/out/sqlsession"
	"persistence/internal/config"
	"persistence/internal/core/application/unitofwork"
	"persistence/internal/core/ports"
	"persistence/internal/jobs"
	"persistence/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type CompositionRoot struct {
	config   Config
	logger   *slog.Logger
	catalog  *config.Catalog
	registry *prometheus.Registry
	manager  *unitofwork.Manager[ports.Session]
}

func NewCompositionRoot(cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog := config.NewCatalog()
	if cfg.UnitsFile != "" {
		loaded, err := config.LoadCatalog(cfg.UnitsFile)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	build, err := builderFor(cfg, catalog)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	collector, err := metrics.NewCollector(registry, cfg.Unit)
	if err != nil {
		return nil, err
	}

	manager, err := unitofwork.NewManager(cfg.Unit, cfg.UnitProperties(), build,
		unitofwork.WithLogger(logger),
		unitofwork.WithMetrics(collector),
	)
	if err != nil {
		return nil, err
	}

	return &CompositionRoot{
		config:   cfg,
		logger:   logger,
		catalog:  catalog,
		registry: registry,
		manager:  manager,
	}, nil
}

// builderFor picks the session implementation from the resolved driver.
func builderFor(cfg Config, catalog *config.Catalog) (unitofwork.FactoryBuilder[ports.Session], error) {
	unit, err := config.NewUnit(cfg.Unit, cfg.UnitProperties())
	if err != nil {
		return nil, err
	}
	settings, err := catalog.Resolve(unit)
	if err != nil {
		return nil, err
	}

	switch settings.Driver {
	case config.DriverGormPostgres:
		return unitofwork.Widen(gormsession.Builder(catalog)), nil
	case config.DriverPostgres, config.DriverSQLite:
		return unitofwork.Widen(sqlsession.Builder(catalog)), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", settings.Driver)
	}
}

func (c *CompositionRoot) Config() Config {
	return c.config
}

func (c *CompositionRoot) Manager() *unitofwork.Manager[ports.Session] {
	return c.manager
}

// Ping checks connectivity through the session of the scope of ctx.
func (c *CompositionRoot) Ping(ctx context.Context) error {
	session, err := c.manager.Get(ctx)
	if err != nil {
		return err
	}
	return session.Ping(ctx)
}

// PingOnce runs one transactional ping in its own work scope.
func (c *CompositionRoot) PingOnce(ctx context.Context) error {
	return unitofwork.Transactional(unitofwork.NewScope(ctx), c.manager,
		func(ctx context.Context, session ports.Session) error {
			return session.Ping(ctx)
		})
}

func (c *CompositionRoot) CreateServer() *http.Server {
	return http.NewServer(c.manager, c.Ping, c.registry, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	connectivity := jobs.NewWorkJob("connectivity", c.config.PingSchedule, c.manager,
		func(ctx context.Context, session ports.Session) error {
			return session.Ping(ctx)
		}, c.logger)
	return jobs.NewJobManager(c.logger, connectivity)
}
