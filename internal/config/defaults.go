package config

const (
	defaultDataDir          = "~/.local/share/wraptrack"
	defaultLogDir           = "~/.local/share/wraptrack/logs"
	defaultAccessPIN        = "1099"
	defaultUnlockSeconds    = 120
	defaultWarnSeconds      = 30
	defaultCriticalSeconds  = 10
	defaultNtfyTimeout      = 10
	defaultStatementTimeout = 5
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Access: Access{
			PIN:             defaultAccessPIN,
			UnlockSeconds:   defaultUnlockSeconds,
			WarnSeconds:     defaultWarnSeconds,
			CriticalSeconds: defaultCriticalSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Storage: Storage{
			StatementTimeoutSeconds: defaultStatementTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
