// Package config loads the taskgate process configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	DSNFile  string `yaml:"dsn_file"`
	MaxConns int32  `yaml:"max_conns"`
}

// AuthConfig holds the token signing secret. Secret is base64; it is read
// once at startup and never reloaded.
type AuthConfig struct {
	Secret       string `yaml:"secret"`
	SecretFile   string `yaml:"secret_file"`
	PasswordCost int    `yaml:"password_cost"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			Path:     "taskgate.db",
			MaxConns: 10,
		},
		Auth: AuthConfig{
			PasswordCost: bcrypt.DefaultCost,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for consistency. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MetricsAddr != "" && c.Server.MetricsAddr == c.Server.Addr {
		errs = append(errs, errors.New("server.metrics_addr must differ from server.addr"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
		if c.Database.MaxConns < 1 {
			errs = append(errs, errors.New("database.max_conns must be at least 1"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite, postgres", c.Database.Driver))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret is required (generate one with --generate-secret)"))
	}
	if c.Auth.PasswordCost < bcrypt.MinCost || c.Auth.PasswordCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.password_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}
