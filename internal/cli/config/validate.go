package config

import (
	"fmt"
	"log/slog"
	"strings"
)

var validOutputs = map[string]bool{
	"auto":     true,
	"text":     true,
	"markdown": true,
	"md":       true,
	"json":     true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	engine := c.Engine()
	if err := engine.Validate(); err != nil {
		return err
	}
	if !validOutputs[strings.ToLower(c.OutputFormat)] {
		return fmt.Errorf("output must be one of auto, text, markdown or json, got %q", c.OutputFormat)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Watch != nil && c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if _, err := c.Lint.Build(); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel converts a level name into a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be one of debug, info, warn or error, got %q", s)
	}
}
