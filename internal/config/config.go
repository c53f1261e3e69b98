package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Task      TaskConfig      `mapstructure:"task"       validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// RequestTimeoutSeconds bounds every request, including its database work.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
	BCryptCost           int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
}

// TaskConfig contains settings for the background task runner that
// delivers notifications.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count"           validate:"required,gt=0"`
	QueueSize           int `mapstructure:"queue_size"             validate:"required,gt=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"required,gt=0"`
	// TimeoutSeconds bounds a single task execution.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	// PendingGraceSeconds is how long a saved task may wait to be queued
	// before the pending sweep queues it.
	PendingGraceSeconds int `mapstructure:"pending_grace_seconds" validate:"required,gt=0"`
}

// Timeout returns the per-task execution timeout as a duration.
func (c TaskConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PendingGrace returns the pending sweep grace period as a duration.
func (c TaskConfig) PendingGrace() time.Duration {
	return time.Duration(c.PendingGraceSeconds) * time.Second
}

// RedisConfig is optional. When URL is empty, rate limiting falls back to
// an in-process limiter.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// RateLimitConfig limits write requests per authenticated user.
type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"       validate:"required,gt=0"`
	WindowSeconds int `mapstructure:"window_seconds" validate:"required,gt=0"`
}

// Window returns the rate limit window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}
