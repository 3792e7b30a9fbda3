// ABOUTME: Configuration loading and parsing for contentd
// ABOUTME: Supports YAML and TOML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete contentd configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Content  ContentConfig  `yaml:"content" toml:"content"`
}

// ServerConfig holds server address and identity configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	Name     string `yaml:"name" toml:"name"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// ContentConfig holds content behavior tuning.
type ContentConfig struct {
	DefaultPageSize int `yaml:"default_page_size" toml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size" toml:"max_page_size"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed
// Config. The format is chosen by file extension (.yaml/.yml or .toml).
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml or .toml)", filepath.Ext(path))
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "localhost:8080"
	}
	if c.Server.Name == "" {
		c.Server.Name = "contentd"
	}
	if c.Database.Path == "" {
		c.Database.Path = "contentd.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Content.DefaultPageSize == 0 {
		c.Content.DefaultPageSize = 20
	}
	if c.Content.MaxPageSize == 0 {
		c.Content.MaxPageSize = 100
	}
}

// Validate checks that all configuration fields are present and consistent.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	if c.Content.DefaultPageSize < 1 {
		return fmt.Errorf("content.default_page_size must be positive")
	}
	if c.Content.MaxPageSize < c.Content.DefaultPageSize {
		return fmt.Errorf("content.max_page_size must be >= content.default_page_size")
	}

	return nil
}

// View returns the sanitized configuration snapshot served by the REST API.
func (c *Config) View() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"http_addr": c.Server.HTTPAddr,
			"name":      c.Server.Name,
		},
		"database": map[string]any{
			"path": c.Database.Path,
		},
		"logging": map[string]any{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
		},
		"content": map[string]any{
			"default_page_size": c.Content.DefaultPageSize,
			"max_page_size":     c.Content.MaxPageSize,
		},
	}
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to an empty string.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
