// Package config centralizes settings for the scanbar service, loaded from
// configuration files, environment variables and command-line flags.
package config

import (
	"fmt"

	"github.com/tcx-health/scanbar/internal/decode"
)

// Config is the complete configuration for the scanbar application.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	Debug    bool   `mapstructure:"debug" yaml:"debug" json:"debug"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver" json:"resolver"`
	Audit    AuditConfig    `mapstructure:"audit" yaml:"audit" json:"audit"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains barcode pipeline settings.
type PipelineConfig struct {
	// MaxWidth bounds the raster width after normalization.
	MaxWidth int `mapstructure:"max_width" yaml:"max_width" json:"max_width"`
	// TryHarder enables the decoder's exhaustive scan.
	TryHarder bool `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	// Formats restricts the accepted symbologies; empty selects all.
	Formats []string `mapstructure:"formats" yaml:"formats" json:"formats"`
}

// ResolverConfig contains product lookup settings.
type ResolverConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	UserAgent  string `mapstructure:"user_agent" yaml:"user_agent" json:"user_agent"`

	// CacheAddr enables the Redis product cache when non-empty.
	CacheAddr   string `mapstructure:"cache_addr" yaml:"cache_addr" json:"cache_addr"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec" json:"cache_ttl_sec"`
}

// AuditConfig contains scan history settings.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path" json:"db_path"`
	// BufferSize bounds the async write queue.
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size" json:"buffer_size"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	RateLimitEnabled  bool  `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}

// Validate checks settings that would otherwise fail at an awkward moment
// deep in a request.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Pipeline.MaxWidth <= 0 {
		return fmt.Errorf("pipeline.max_width must be positive, got %d", c.Pipeline.MaxWidth)
	}
	for _, name := range c.Pipeline.Formats {
		if _, ok := decode.ParseFormat(name); !ok {
			return fmt.Errorf("unknown barcode format %q", name)
		}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Resolver.Enabled && c.Resolver.TimeoutSec <= 0 {
		return fmt.Errorf("resolver.timeout_sec must be positive, got %d", c.Resolver.TimeoutSec)
	}
	if c.Audit.Enabled && c.Audit.DBPath == "" {
		return fmt.Errorf("audit.db_path is required when audit is enabled")
	}
	return nil
}

// DecodeFormats maps the configured format names to decoder formats. An
// empty list selects every supported symbology.
func (c *Config) DecodeFormats() []decode.Format {
	if len(c.Pipeline.Formats) == 0 {
		return decode.DefaultHints().Formats
	}
	formats := make([]decode.Format, 0, len(c.Pipeline.Formats))
	for _, name := range c.Pipeline.Formats {
		if f, ok := decode.ParseFormat(name); ok {
			formats = append(formats, f)
		}
	}
	return formats
}
