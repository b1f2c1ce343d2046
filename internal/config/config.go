package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
	Task     TaskConfig     `mapstructure:"task"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	// ShutdownTimeoutSeconds bounds graceful shutdown on SIGTERM.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes is the validity window for issued tokens.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// EngineConfig tunes the note engine: retention thresholds, the
// suggestion matcher and write-conflict handling.
type EngineConfig struct {
	// RegionThreshold is the retention score at or above which a note is
	// placed in the long-term region.
	RegionThreshold float64 `mapstructure:"region_threshold" validate:"gt=0,lt=1"`

	// DebounceMillis is the quiet period the suggestion debouncer waits
	// before running a similarity pass.
	DebounceMillis int `mapstructure:"debounce_millis" validate:"gt=0"`

	// SuggestionLimit caps how many related notes one suggestion pass
	// returns.
	SuggestionLimit int `mapstructure:"suggestion_limit" validate:"gt=0,lte=20"`

	// OrphanPolicy decides what happens to memory nodes when their source
	// note is deleted: "keep" detaches them, "cascade" removes them.
	OrphanPolicy string `mapstructure:"orphan_policy" validate:"required,oneof=keep cascade"`

	// ConflictRetries bounds automatic retries of content updates that hit
	// a version conflict.
	ConflictRetries int `mapstructure:"conflict_retries" validate:"gte=0,lte=10"`
}

// TaskConfig contains settings for the background task runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1,lte=32"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`
}
