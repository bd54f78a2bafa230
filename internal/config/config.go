// Package config provides configuration types and defaults for registra.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/registra-io/registra/internal/log"
	"github.com/registra-io/registra/internal/tracing"
)

// Config holds all configuration options for registra.
type Config struct {
	// DatabasePath locates the registry SQLite file.
	DatabasePath string `mapstructure:"database_path"`

	// Ephemeral runs against a throwaway in-memory database.
	Ephemeral bool `mapstructure:"ephemeral"`

	// Actor is the default acting principal for CLI operations; overridden
	// per invocation with --actor.
	Actor string `mapstructure:"actor"`

	Schema  SchemaConfig   `mapstructure:"schema"`
	Roles   RolesConfig    `mapstructure:"roles"`
	Log     LogConfig      `mapstructure:"log"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// SchemaConfig locates the extension-attribute schema definition.
type SchemaConfig struct {
	// Path is the YAML file declaring per-registry extension attributes.
	// Empty means no extension attributes are defined.
	Path string `mapstructure:"path"`

	// Watch hot-reloads the schema when the file changes.
	Watch bool `mapstructure:"watch"`
}

// RolesConfig locates the role-assignment file for the identity provider.
type RolesConfig struct {
	// Path is the YAML file binding principals to governance roles.
	// Empty disables role enforcement.
	Path string `mapstructure:"path"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Level   string `mapstructure:"level"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		DatabasePath: filepath.Join(".registra", "registra.db"),
		Ephemeral:    false,
		Actor:        "",
		Schema: SchemaConfig{
			Path:  "",
			Watch: true,
		},
		Roles: RolesConfig{
			Path: "",
		},
		Log: LogConfig{
			Enabled: false,
			Path:    filepath.Join(".registra", "registra.log"),
			Level:   "info",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// ParseLevel maps a config string to a log level, defaulting to info.
func ParseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# registra configuration

# Path to the registry database.
database_path: .registra/registra.db

# Default acting principal for CLI operations (override with --actor).
actor: ""

schema:
  # Extension-attribute schema (YAML). Empty disables extension attributes.
  path: ""
  # Hot-reload the schema when the file changes.
  watch: true

roles:
  # Role assignments (YAML). Empty disables role enforcement.
  path: ""

log:
  enabled: false
  path: .registra/registra.log
  level: info

tracing:
  enabled: false
  # Exporter: file, stdout, or otlp.
  exporter: file
  file_path: ""
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
  service_name: registra
`
}

// WriteDefaultConfig writes the default config template to the given path.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}
