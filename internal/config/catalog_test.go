package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"persistence/internal/config"
	"persistence/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
units:
  orders-unit:
    driver: postgres
    dsn: postgres://orders@localhost:5432/orders?sslmode=disable
    max_open_conns: 16
    max_idle_conns: 4
    conn_max_lifetime: 30m
  audit-unit:
    driver: sqlite
    dsn: file:audit.db
`

func mustUnit(t *testing.T, name string, props map[string]string) config.Unit {
	t.Helper()
	unit, err := config.NewUnit(name, props)
	require.NoError(t, err)
	return unit
}

func TestParseCatalog(t *testing.T) {
	catalog, err := config.ParseCatalog([]byte(catalogYAML))

	require.NoError(t, err)
	assert.Equal(t, []string{"audit-unit", "orders-unit"}, catalog.Units())
}

func TestParseCatalog_InvalidYAML(t *testing.T) {
	_, err := config.ParseCatalog([]byte("units: [unclosed"))

	require.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	catalog, err := config.LoadCatalog(path)

	require.NoError(t, err)
	assert.Len(t, catalog.Units(), 2)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := config.LoadCatalog(path)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.Contains(t, err.Error(), path)
}

func TestParseCatalog_UnitWithoutProperties(t *testing.T) {
	_, err := config.ParseCatalog([]byte("units:\n  orders-unit:\n"))

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	assert.Contains(t, err.Error(), "orders-unit")
}

func TestCatalog_Resolve(t *testing.T) {
	catalog, err := config.ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)

	t.Run("catalog definition", func(t *testing.T) {
		settings, resolveErr := catalog.Resolve(mustUnit(t, "orders-unit", nil))

		require.NoError(t, resolveErr)
		assert.Equal(t, config.Settings{
			Unit:            "orders-unit",
			Driver:          config.DriverPostgres,
			DSN:             "postgres://orders@localhost:5432/orders?sslmode=disable",
			MaxOpenConns:    16,
			MaxIdleConns:    4,
			ConnMaxLifetime: 30 * time.Minute,
		}, settings)
	})

	t.Run("overrides win over catalog", func(t *testing.T) {
		unit := mustUnit(t, "orders-unit", map[string]string{
			"max_open_conns": "2",
			"log_level":      "warn",
		})

		settings, resolveErr := catalog.Resolve(unit)

		require.NoError(t, resolveErr)
		assert.Equal(t, 2, settings.MaxOpenConns)
		assert.Equal(t, 4, settings.MaxIdleConns)
		assert.Equal(t, "warn", settings.LogLevel)
	})

	t.Run("unit described only by overrides", func(t *testing.T) {
		unit := mustUnit(t, "adhoc-unit", map[string]string{"driver": "sqlite", "dsn": "file:adhoc.db"})

		settings, resolveErr := catalog.Resolve(unit)

		require.NoError(t, resolveErr)
		assert.Equal(t, config.DriverSQLite, settings.Driver)
	})

	t.Run("unknown unit", func(t *testing.T) {
		_, resolveErr := catalog.Resolve(mustUnit(t, "missing-unit", nil))

		require.ErrorIs(t, resolveErr, errs.ErrObjectNotFound)
	})

	t.Run("unconstructed unit", func(t *testing.T) {
		_, resolveErr := catalog.Resolve(config.Unit{})

		require.ErrorIs(t, resolveErr, config.ErrUnitIsNotConstructed)
	})

	t.Run("unknown property key", func(t *testing.T) {
		unit := mustUnit(t, "orders-unit", map[string]string{"pool": "9"})

		_, resolveErr := catalog.Resolve(unit)

		require.ErrorIs(t, resolveErr, errs.ErrValueIsInvalid)
	})
}

func TestNilCatalog_ResolvesOverridesOnly(t *testing.T) {
	var catalog *config.Catalog

	settings, err := catalog.Resolve(mustUnit(t, "orders-unit", map[string]string{
		"driver": "sqlite",
		"dsn":    "file:orders.db",
	}))

	require.NoError(t, err)
	assert.Equal(t, "orders-unit", settings.Unit)
	assert.Empty(t, catalog.Units())
}
