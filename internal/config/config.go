package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds bridge configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// JWT checks are enabled only when JWTSecret is set.
	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	MaxMessageBytes   int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	Workers           int   `mapstructure:"workers" yaml:"workers"`
	EventBuffer       int   `mapstructure:"event_buffer" yaml:"event_buffer"`
	ClientBuffer      int   `mapstructure:"client_buffer" yaml:"client_buffer"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`

	MetricsEnabled    bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
	SendProgressSteps int  `mapstructure:"send_progress_steps" yaml:"send_progress_steps"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		DatabasePath:      "bridge.db",
		JWTIssuer:         "wirechat-bridge",
		JWTAudience:       "wirechat-bridge",
		JWTTTL:            24 * time.Hour,
		MaxMessageBytes:   1 << 20,
		Workers:           8,
		EventBuffer:       256,
		ClientBuffer:      64,
		RequestsPerMinute: 600,
		MetricsEnabled:    true,
		SendProgressSteps: 4,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans cannot be unset this way.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.EventBuffer != 0 {
		c.EventBuffer = other.EventBuffer
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.RequestsPerMinute != 0 {
		c.RequestsPerMinute = other.RequestsPerMinute
	}
	if other.MetricsEnabled {
		c.MetricsEnabled = true
	}
	if other.SendProgressSteps != 0 {
		c.SendProgressSteps = other.SendProgressSteps
	}
}

// Validate rejects values the bridge cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is empty"))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.EventBuffer <= 0 || c.ClientBuffer <= 0 {
		errs = append(errs, errors.New("event_buffer and client_buffer must be positive"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("max_message_bytes must be positive"))
	}
	if c.SendProgressSteps < 0 {
		errs = append(errs, errors.New("send_progress_steps cannot be negative"))
	}
	if c.JWTSecret != "" && c.JWTTTL <= 0 {
		errs = append(errs, errors.New("jwt_ttl must be positive when jwt_secret is set"))
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
