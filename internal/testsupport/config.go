package testsupport

import (
	"path/filepath"
	"testing"

	"wraptrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithPIN overrides the elevated-access PIN on the test config.
func WithPIN(pin string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Access.PIN = pin
	}
}

// WithUnlockWindow overrides the elevated-access window durations in seconds.
func WithUnlockWindow(unlock, warn, critical int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Access.UnlockSeconds = unlock
		cfg.Access.WarnSeconds = warn
		cfg.Access.CriticalSeconds = critical
	}
}
