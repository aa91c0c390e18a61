package config

import "time"

// Default values for configuration.
const (
	// Bot defaults
	DefaultParseMode             = "HTML"
	DefaultCaptionLimit          = 1000
	DefaultPollingTimeoutSeconds = 60
	DefaultHandlerTimeoutSeconds = 30

	// Retry defaults
	DefaultNetworkAttempts   = 3
	DefaultInitialBackoff    = 1 * time.Second
	DefaultBackoffMultiplier = 2.0

	// Storage defaults
	DefaultDBPath = "/data/bot.sqlite"

	// State defaults
	DefaultStateTTL             = 24 * time.Hour
	DefaultStateCleanupInterval = 10 * time.Minute

	// Broadcast defaults
	DefaultBroadcastConcurrency = 8
	DefaultBroadcastJobTTL      = 24 * time.Hour

	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"

	// DefaultConfigPath: YAML-файл, читаемый при отсутствии CONFIG_PATH.
	DefaultConfigPath = "bot_config.yml"
)

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		Bot: Bot{
			ParseMode:             DefaultParseMode,
			CaptionLimit:          DefaultCaptionLimit,
			PollingTimeoutSeconds: DefaultPollingTimeoutSeconds,
			HandlerTimeoutSeconds: DefaultHandlerTimeoutSeconds,
		},
		Retry: Retry{
			NetworkAttempts: DefaultNetworkAttempts,
			InitialBackoff:  DefaultInitialBackoff,
			Multiplier:      DefaultBackoffMultiplier,
		},
		Storage: Storage{DBPath: DefaultDBPath},
		State: State{
			TTL:             DefaultStateTTL,
			CleanupInterval: DefaultStateCleanupInterval,
		},
		Broadcast: Broadcast{
			Concurrency: DefaultBroadcastConcurrency,
			JobTTL:      DefaultBroadcastJobTTL,
		},
		Server: Server{
			Enabled:                true,
			Host:                   DefaultServerHost,
			Port:                   DefaultServerPort,
			ShutdownTimeoutSeconds: int(DefaultShutdownTimeout / time.Second),
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Media: map[string]string{},
	}
}
