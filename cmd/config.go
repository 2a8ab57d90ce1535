package cmd

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"persistence/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

const (
	DefaultHTTPPort     = "8080"
	DefaultUnit         = "default"
	DefaultPingSchedule = "*/30 * * * * *"
)

type Config struct {
	HTTPPort     string
	Unit         string
	UnitsFile    string
	Driver       string
	DSN          string
	LogLevel     string
	PingSchedule string
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.HTTPPort == "" {
		c.HTTPPort = DefaultHTTPPort
	}
	if c.Unit == "" {
		c.Unit = DefaultUnit
	}
	if c.PingSchedule == "" {
		c.PingSchedule = DefaultPingSchedule
	}
	return c
}

// UnitProperties returns the per-unit overrides given through the environment.
func (c Config) UnitProperties() map[string]string {
	props := make(map[string]string)
	if c.Driver != "" {
		props["driver"] = c.Driver
	}
	if c.DSN != "" {
		props["dsn"] = c.DSN
	}
	if c.LogLevel != "" {
		props["log_level"] = c.LogLevel
	}
	return props
}

// Validate checks the process-level settings. Unit settings are validated
// when the unit is resolved.
func (c Config) Validate() error {
	return errors.Join(
		c.validateHTTPPort(),
		c.validateLogLevel(),
		c.validatePingSchedule(),
	)
}

func (c Config) validateHTTPPort() error {
	port, err := strconv.Atoi(c.HTTPPort)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("HTTP_PORT", err)
	}
	if port < 1 || port > 65535 {
		return errs.NewValueIsOutOfRangeError("HTTP_PORT", port, 1, 65535)
	}
	return nil
}

func (c Config) validateLogLevel() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return errs.NewValueIsInvalidError("LOG_LEVEL")
	}
}

func (c Config) validatePingSchedule() error {
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow |
		cron.Descriptor).Parse(c.PingSchedule); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("PING_SCHEDULE", err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
