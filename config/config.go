// Package config loads server configuration from a YAML file and ROSTER_* environment
// variables. Environment values override the file; command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvConfig        = "ROSTER_CONFIG"
	EnvAddr          = "ROSTER_ADDR"
	EnvAppName       = "ROSTER_APP_NAME"
	EnvDatabasePath  = "ROSTER_DB_PATH"
	EnvRedisAddr     = "ROSTER_REDIS_ADDR"
	EnvRedisPassword = "ROSTER_REDIS_PASSWORD"
	EnvRedisDB       = "ROSTER_REDIS_DB"
	EnvRedisTTL      = "ROSTER_REDIS_TTL"
	EnvLogLevel      = "ROSTER_LOG_LEVEL"
	EnvLogFormat     = "ROSTER_LOG_FORMAT"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AppName prefixes the alert headers, e.g. X-rosterApp-alert.
	AppName         string `yaml:"appName"`
	DefaultPageSize int    `yaml:"defaultPageSize"`
	MaxPageSize     int    `yaml:"maxPageSize"`
	// MaxUploadBytes bounds spreadsheet imports.
	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the optional record cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a redis address is configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AppName:         "rosterApp",
			DefaultPageSize: 20,
			MaxPageSize:     2000,
			MaxUploadBytes:  10 << 20,
		},
		Database: DatabaseConfig{Path: "roster.db"},
		Redis:    RedisConfig{TTL: 10 * time.Minute},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if path is not
// empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadEnv only sets values that are present in the environment.
func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvAppName); v != "" {
		c.Server.AppName = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		c.Redis.DB = n
	}
	if v := os.Getenv(EnvRedisTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisTTL, err)
		}
		c.Redis.TTL = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.AppName == "" {
		errs = append(errs, errors.New("server.appName must not be empty"))
	}
	if c.Server.DefaultPageSize <= 0 {
		errs = append(errs, fmt.Errorf("server.defaultPageSize must be positive, got %d", c.Server.DefaultPageSize))
	}
	if c.Server.MaxPageSize < c.Server.DefaultPageSize {
		errs = append(errs, fmt.Errorf("server.maxPageSize (%d) must be at least defaultPageSize (%d)",
			c.Server.MaxPageSize, c.Server.DefaultPageSize))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.maxUploadBytes must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis.ttl must not be negative"))
	}
	return errors.Join(errs...)
}
