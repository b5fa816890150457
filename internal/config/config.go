// Package config loads evmatch settings from the environment.
//
// Environment values become CLI flag defaults; explicit flags win.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by CLI commands.
type Config struct {
	// Database is the SQLite subscription store path.
	Database string `env:"EVMATCH_DB" envDefault:"evmatch.db"`

	// ModelsDir holds the CUE event model definitions.
	ModelsDir string `env:"EVMATCH_MODELS_DIR" envDefault:"models"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"EVMATCH_LOG_LEVEL" envDefault:"info"`

	// Scopes lists the scope types to match against.
	Scopes []string `env:"EVMATCH_SCOPES" envDefault:"bpmn,cmmn" envSeparator:","`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the Config described by the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("EVMATCH_LOG_LEVEL: %w", err)
	}
	return level, nil
}
