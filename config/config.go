// Package config loads the screener's YAML configuration and builds its
// logger.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Engine  EngineConfig  `yaml:"engine"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxSessions int    `yaml:"max_sessions"`
}

// DataConfig selects the universe. An empty Universe means the embedded
// sample.
type DataConfig struct {
	Universe   string `yaml:"universe"`
	Format     string `yaml:"format"` // csv or json; inferred from the extension when empty
	LiveQuotes bool   `yaml:"live_quotes"`
}

type EngineConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	HistorySize  int `yaml:"history_size"`
	Suggestions  int `yaml:"suggestions"`
}

type IndexConfig struct {
	Kind string `yaml:"kind"` // bleve or memory
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", MaxSessions: 1000},
		Engine: EngineConfig{DefaultLimit: 20, HistorySize: 50, Suggestions: 5},
		Index:  IndexConfig{Kind: "bleve"},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCREENER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SCREENER_UNIVERSE"); v != "" {
		c.Data.Universe = v
	}
	if v := os.Getenv("SCREENER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Data.Format) {
	case "", "csv", "json":
	default:
		return fmt.Errorf("invalid data.format: %s (valid: csv, json)", c.Data.Format)
	}
	switch c.Index.Kind {
	case "", "bleve", "memory":
	default:
		return fmt.Errorf("invalid index.kind: %s (valid: bleve, memory)", c.Index.Kind)
	}
	if c.Engine.DefaultLimit < 0 || c.Engine.HistorySize < 0 || c.Engine.Suggestions < 0 {
		return fmt.Errorf("engine limits must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	return nil
}

// NewLogger builds a JSON production logger, or a console logger in
// development mode, at the configured level.
func NewLogger(lc LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// stdout carries query output in the CLI
	zc.OutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
