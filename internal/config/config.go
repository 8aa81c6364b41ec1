// Package config loads and validates application configuration from
// environment variables and an optional config file.
package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"      validate:"required"`
	JobService JobServiceConfig `mapstructure:"job_service" validate:"required"`
	Poll       PollConfig       `mapstructure:"poll"        validate:"required"`
}

// ServerConfig contains the local HTTP surface settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// JobServiceConfig contains the remote job-service connection settings.
type JobServiceConfig struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	AuthToken      string        `mapstructure:"auth_token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=0"`
}

// PollConfig controls the background refresh loop.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"min=0"`
	Enabled  bool          `mapstructure:"enabled"`
}
