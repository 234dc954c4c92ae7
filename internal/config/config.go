package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Log         LogConfig      `mapstructure:"log"`
	Search      SearchConfig   `mapstructure:"search"`
	Health      HealthConfig   `mapstructure:"health"`
	Dispatch    DispatchConfig `mapstructure:"dispatch"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port                int    `mapstructure:"port"`
	Host                string `mapstructure:"host"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig contains Redis configuration. Redis is optional; with
// Enabled false statuses are cached in process memory instead.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SearchConfig contains search fan-out configuration
type SearchConfig struct {
	TimeoutSeconds    int `mapstructure:"timeout_seconds"`
	RateLimitRequests int `mapstructure:"rate_limit_requests"`
	RateLimitWindow   int `mapstructure:"rate_limit_window"`
}

// HealthConfig contains health monitoring configuration
type HealthConfig struct {
	CheckIntervalSeconds int `mapstructure:"check_interval_seconds"`
	ProbeTimeoutSeconds  int `mapstructure:"probe_timeout_seconds"`
	StatusTTLSeconds     int `mapstructure:"status_ttl_seconds"`
}

// DispatchConfig contains download dispatch configuration
type DispatchConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	FreshnessSeconds int `mapstructure:"freshness_seconds"`
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetDefault("environment", "development")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout_seconds", 30)
	viper.SetDefault("server.write_timeout_seconds", 30)
	viper.SetDefault("server.idle_timeout_seconds", 120)

	viper.SetDefault("database.path", "./data/searcharr.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("log.level", "info")

	viper.SetDefault("search.timeout_seconds", 30)
	viper.SetDefault("search.rate_limit_requests", 60)
	viper.SetDefault("search.rate_limit_window", 60)

	viper.SetDefault("health.check_interval_seconds", 60)
	viper.SetDefault("health.probe_timeout_seconds", 5)
	viper.SetDefault("health.status_ttl_seconds", 90)

	viper.SetDefault("dispatch.timeout_seconds", 30)
	viper.SetDefault("dispatch.freshness_seconds", 30)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/searcharr")

	// Environment variable settings
	viper.SetEnvPrefix("SEARCHARR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
