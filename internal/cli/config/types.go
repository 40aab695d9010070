// Package config provides configuration management for the SiSuo CLI.
//
// This package layers CLI-specific fields (output mode, log level,
// project root) on top of the shared project configuration in
// internal/config. The shared types are re-exported here via aliases.
package config

import (
	sharedcfg "github.com/supaloboto/sisuo/internal/config"
)

// LintConfig is an alias for the shared lint configuration.
type LintConfig = sharedcfg.LintConfig

// WatchConfig is an alias for the shared watch configuration.
type WatchConfig = sharedcfg.WatchConfig

// EngineConfig is an alias for the shared engine configuration.
type EngineConfig = sharedcfg.EngineConfig

// Config holds all CLI configuration options.
type Config struct {
	Resolution        string            `koanf:"resolution"`
	MaxDepth          int               `koanf:"max_depth"`
	DivisionPrecision int32             `koanf:"division_precision"`
	OutputFormat      string            `koanf:"output"`
	LogLevel          string            `koanf:"log_level"`
	Verbose           bool              `koanf:"verbose"`
	Params            map[string]string `koanf:"params"`
	ParamsFile        string            `koanf:"params_file"`
	Watch             *WatchConfig      `koanf:"watch"`
	Lint              *LintConfig       `koanf:"lint"`

	// ProjectRoot is the directory holding the config file, or the
	// working directory when there is none. Not read from any source.
	ProjectRoot string `koanf:"-"`
}

// Engine returns the engine part of the configuration.
func (c *Config) Engine() EngineConfig {
	return EngineConfig{
		Resolution:        c.Resolution,
		MaxDepth:          c.MaxDepth,
		DivisionPrecision: c.DivisionPrecision,
	}
}

// GetWatchConfig returns the watch config with defaults applied.
func (c *Config) GetWatchConfig() *WatchConfig {
	if c.Watch == nil {
		c.Watch = &WatchConfig{}
	}
	sharedcfg.ApplyWatchDefaults(c.Watch)
	return c.Watch
}

// Default configuration values. Engine defaults come from internal/config.
const (
	DefaultResolution        = sharedcfg.DefaultResolution
	DefaultMaxDepth          = sharedcfg.DefaultMaxDepth
	DefaultDivisionPrecision = sharedcfg.DefaultDivisionPrecision
	DefaultOutput            = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel          = "warn"
)
