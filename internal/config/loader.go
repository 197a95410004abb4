package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "scanbar"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SCANBAR"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader. It uses the global viper
// instance so cobra flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// GetViper exposes the underlying viper instance for flag re-binding.
func (l *Loader) GetViper() *viper.Viper { return l.v }

// Load loads configuration from files, environment variables and defaults.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshalAndValidate()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// addConfigPaths registers the config file search locations.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "scanbar"))
	}
	l.v.AddConfigPath("/etc/scanbar")
}

// setupEnvironmentVariables enables SCANBAR_* overrides, with dots mapped
// to underscores (e.g. SCANBAR_SERVER_PORT).
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// setDefaults establishes the production defaults.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("verbose", false)
	l.v.SetDefault("debug", false)

	l.v.SetDefault("pipeline.max_width", 1200)
	l.v.SetDefault("pipeline.try_harder", true)
	l.v.SetDefault("pipeline.formats", []string{})

	l.v.SetDefault("resolver.enabled", true)
	l.v.SetDefault("resolver.base_url", "https://world.openfoodfacts.org")
	l.v.SetDefault("resolver.timeout_sec", 15)
	l.v.SetDefault("resolver.user_agent", "scanbar/1.0")
	l.v.SetDefault("resolver.cache_addr", "")
	l.v.SetDefault("resolver.cache_ttl_sec", 86400)

	l.v.SetDefault("audit.enabled", false)
	l.v.SetDefault("audit.db_path", "scanbar-audit.db")
	l.v.SetDefault("audit.buffer_size", 256)

	l.v.SetDefault("server.host", "localhost")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.cors_origin", "*")
	l.v.SetDefault("server.max_upload_mb", 50)
	l.v.SetDefault("server.timeout_sec", 60)
	l.v.SetDefault("server.shutdown_timeout", 10)
	l.v.SetDefault("server.rate_limit_enabled", false)
	l.v.SetDefault("server.requests_per_minute", 60)
	l.v.SetDefault("server.requests_per_hour", 1000)
	l.v.SetDefault("server.max_requests_per_day", 5000)
	l.v.SetDefault("server.max_data_per_day", int64(100*1024*1024))
}
