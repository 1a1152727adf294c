package config

import (
	"errors"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAccess(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateAccess() error {
	if strings.TrimSpace(c.Access.PIN) == "" {
		return errors.New("access.pin must be set")
	}
	if c.Access.UnlockSeconds <= 0 {
		return errors.New("access.unlock_seconds must be positive")
	}
	if c.Access.WarnSeconds < 0 || c.Access.CriticalSeconds < 0 {
		return errors.New("access warning thresholds must not be negative")
	}
	if c.Access.CriticalSeconds > c.Access.WarnSeconds {
		return errors.New("access.critical_seconds must not exceed access.warn_seconds")
	}
	if c.Access.WarnSeconds > c.Access.UnlockSeconds {
		return errors.New("access.warn_seconds must not exceed access.unlock_seconds")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.StatementTimeoutSeconds <= 0 {
		return errors.New("storage.statement_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return errors.New("logging.format must be console or json")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
