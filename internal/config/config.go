// SPDX-License-Identifier: MIT

// Package config loads the runtime configuration of the depdual CLI from
// .depdual.yaml, DEPDUAL_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/depdual/dual"
)

// ErrInvalid is returned for configuration values the CLI cannot use.
var ErrInvalid = errors.New("config: invalid value")

// Output formats of decode reports.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config holds all runtime configuration for a depdual run.
type Config struct {
	Beta          float64       `mapstructure:"beta"`
	MaxIterations int           `mapstructure:"max_iterations"`
	Tolerance     float64       `mapstructure:"tolerance"`
	StepSize      float64       `mapstructure:"step_size"`
	Workers       int           `mapstructure:"workers"`
	TimeLimit     time.Duration `mapstructure:"time_limit"`
	LogLevel      string        `mapstructure:"log_level"`
	Output        string        `mapstructure:"output"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	d := dual.DefaultOptions()
	v.SetDefault("beta", d.Beta)
	v.SetDefault("max_iterations", d.MaxIterations)
	v.SetDefault("tolerance", d.Tolerance)
	v.SetDefault("step_size", d.StepSize)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("time_limit", d.TimeLimit)
	v.SetDefault("log_level", "warn")
	v.SetDefault("output", OutputText)
}

// Load reads configuration from v, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Output = strings.ToLower(cfg.Output)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the CLI-only keys; decoder options are checked by
// dual.NewCoordinator.
func (c Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("%w: output %q", ErrInvalid, c.Output)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}

	return nil
}

// DualOptions converts the configuration into decoder options.
func (c Config) DualOptions(logger *zap.Logger) dual.Options {
	return dual.Options{
		Beta:          c.Beta,
		MaxIterations: c.MaxIterations,
		Tolerance:     c.Tolerance,
		StepSize:      c.StepSize,
		Workers:       c.Workers,
		TimeLimit:     c.TimeLimit,
		Logger:        logger,
	}
}

// Logger builds a production JSON logger at the configured level, or a
// console logger when the level is debug.
func (c Config) Logger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
