package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TASKGATE_CONFIG env, ./taskgate.yaml)
//  3. TASKGATE_* environment variables
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("TASKGATE_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("taskgate.yaml"); err == nil {
		return "taskgate.yaml"
	}
	return ""
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"TASKGATE_SERVER_ADDR":         &cfg.Server.Addr,
		"TASKGATE_SERVER_METRICS_ADDR": &cfg.Server.MetricsAddr,
		"TASKGATE_DATABASE_DRIVER":     &cfg.Database.Driver,
		"TASKGATE_DATABASE_PATH":       &cfg.Database.Path,
		"TASKGATE_DATABASE_DSN":        &cfg.Database.DSN,
		"TASKGATE_DATABASE_DSN_FILE":   &cfg.Database.DSNFile,
		"TASKGATE_AUTH_SECRET":         &cfg.Auth.Secret,
		"TASKGATE_AUTH_SECRET_FILE":    &cfg.Auth.SecretFile,
		"TASKGATE_LOG_LEVEL":           &cfg.Log.Level,
		"TASKGATE_LOG_FORMAT":          &cfg.Log.Format,
	}
	for name, field := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}

	durations := map[string]*time.Duration{
		"TASKGATE_SERVER_READ_TIMEOUT":     &cfg.Server.ReadTimeout,
		"TASKGATE_SERVER_WRITE_TIMEOUT":    &cfg.Server.WriteTimeout,
		"TASKGATE_SERVER_SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
	}
	for name, field := range durations {
		if v, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*field = d
		}
	}

	if v, ok := os.LookupEnv("TASKGATE_DATABASE_MAX_CONNS"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("TASKGATE_DATABASE_MAX_CONNS: %w", err)
		}
		cfg.Database.MaxConns = int32(n)
	}
	if v, ok := os.LookupEnv("TASKGATE_AUTH_PASSWORD_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKGATE_AUTH_PASSWORD_COST: %w", err)
		}
		cfg.Auth.PasswordCost = n
	}

	return nil
}

// resolveFileReferences fills secret fields from their _file counterparts
// when the value itself is unset.
func resolveFileReferences(cfg *Config) error {
	if cfg.Auth.SecretFile != "" && cfg.Auth.Secret == "" {
		val, err := readSecretFile(cfg.Auth.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.secret_file: %w", err)
		}
		cfg.Auth.Secret = val
	}

	if cfg.Database.DSNFile != "" && cfg.Database.DSN == "" {
		val, err := readSecretFile(cfg.Database.DSNFile)
		if err != nil {
			return fmt.Errorf("database.dsn_file: %w", err)
		}
		cfg.Database.DSN = val
	}

	return nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
