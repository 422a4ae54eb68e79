// Package config loads and validates the application configuration.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Tags     TagsConfig     `mapstructure:"tags"     validate:"required"`
	Outbox   OutboxConfig   `mapstructure:"outbox"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TagsConfig contains the tag-validation cache settings.
type TagsConfig struct {
	// CacheTTLMinutes is how long a refreshed tag catalog snapshot stays
	// fresh before the next validation triggers a synchronous refresh.
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes" validate:"required,gt=0"`
}

// OutboxConfig contains the outbox dispatcher settings.
type OutboxConfig struct {
	// PollIntervalSeconds is how often the dispatcher sweeps for pending
	// events between nudges.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`

	// BatchSize is the maximum number of pending events drained per sweep.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// MaxRetries bounds the delivery attempts per publish call.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`
}
