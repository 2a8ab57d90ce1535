package config

import (
	"errors"
	"fmt"
	"time"

	"persistence/internal/pkg/errs"

	"github.com/mitchellh/mapstructure"
)

const (
	DriverPostgres     = "postgres"
	DriverSQLite       = "sqlite"
	DriverGormPostgres = "gorm-postgres"

	maxPoolSize = 1000
)

// Settings are the typed provider settings of a resolved unit.
type Settings struct {
	Unit            string        `mapstructure:"-"`
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// DecodeSettings converts a loosely typed property bag into Settings.
// String values are accepted for numeric and duration keys.
func DecodeSettings(properties map[string]any) (Settings, error) {
	var s Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &s,
	})
	if err != nil {
		return Settings{}, err
	}

	if err = decoder.Decode(properties); err != nil {
		return Settings{}, errs.NewValueIsInvalidErrorWithCause("persistence properties", err)
	}

	return s, nil
}

// Validate checks the settings a factory needs before opening any connection.
func (s Settings) Validate() error {
	return errors.Join(
		s.validateDriver(),
		s.validateDSN(),
		validatePoolSize("max_open_conns", s.MaxOpenConns),
		validatePoolSize("max_idle_conns", s.MaxIdleConns),
		s.validateIdleWithinOpen(),
		s.validateLifetime(),
	)
}

func (s Settings) validateDriver() error {
	switch s.Driver {
	case DriverPostgres, DriverSQLite, DriverGormPostgres:
		return nil
	case "":
		return errs.NewValueIsRequiredError("driver")
	default:
		return errs.NewValueIsInvalidErrorWithCause("driver", fmt.Errorf("unsupported driver %q", s.Driver))
	}
}

func (s Settings) validateDSN() error {
	if s.DSN == "" {
		return errs.NewValueIsRequiredError("dsn")
	}
	return nil
}

// validateIdleWithinOpen rejects an idle pool larger than a bounded open pool.
func (s Settings) validateIdleWithinOpen() error {
	if s.MaxOpenConns > 0 && s.MaxIdleConns > s.MaxOpenConns {
		return errs.NewValueIsOutOfRangeErrorWithCause("max_idle_conns", s.MaxIdleConns, 0, s.MaxOpenConns,
			errors.New("idle connections cannot exceed max_open_conns"))
	}
	return nil
}

func (s Settings) validateLifetime() error {
	if s.ConnMaxLifetime < 0 {
		return errs.NewValueIsOutOfRangeError("conn_max_lifetime", s.ConnMaxLifetime, 0, "unbounded")
	}
	return nil
}

func validatePoolSize(name string, v int) error {
	if v < 0 || v > maxPoolSize {
		return errs.NewValueIsOutOfRangeError(name, v, 0, maxPoolSize)
	}
	return nil
}
