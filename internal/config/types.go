// Package config provides shared configuration types for SiSuo.
// This package is decoupled from CLI concerns and can be used by any host
// that embeds the engine and wants to read a project's sisuo.yaml.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/lint"
)

// EngineConfig holds the settings that change how scripts evaluate.
type EngineConfig struct {
	// Resolution is "single-pass" or "two-pass"
	Resolution string `koanf:"resolution"`

	// MaxDepth bounds nested evaluation, recursion included
	MaxDepth int `koanf:"max_depth"`

	// DivisionPrecision is the number of decimal places kept by division
	DivisionPrecision int32 `koanf:"division_precision"`
}

// LintConfig holds diagnostic configuration.
type LintConfig struct {
	// Disabled contains codes to drop
	Disabled []string `koanf:"disabled"`

	// Severity maps a code to a severity override (error, warning, info)
	Severity map[string]string `koanf:"severity"`
}

// Build converts the configuration into a lint.Config.
func (c *LintConfig) Build() (*lint.Config, error) {
	out := lint.NewConfig()
	if c == nil {
		return out, nil
	}
	for _, code := range c.Disabled {
		out.Disable(code)
	}
	for code, name := range c.Severity {
		sev, ok := core.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("lint.severity.%s: unknown severity %q (want error, warning or info)", code, name)
		}
		out.SetSeverity(code, sev)
	}
	return out, nil
}

// WatchConfig holds settings of the watch command.
type WatchConfig struct {
	// Debounce is how long to wait for more file events before re-evaluating
	Debounce time.Duration `koanf:"debounce"`
}

// ProjectConfig holds the project settings read from sisuo.yaml without
// any CLI layering.
type ProjectConfig struct {
	Resolution        string            `koanf:"resolution"`
	MaxDepth          int               `koanf:"max_depth"`
	DivisionPrecision int32             `koanf:"division_precision"`
	Params            map[string]string `koanf:"params"`
	ParamsFile        string            `koanf:"params_file"`
	Watch             *WatchConfig      `koanf:"watch"`
	Lint              *LintConfig       `koanf:"lint"`
}

// Engine returns the engine part of the project configuration.
func (c *ProjectConfig) Engine() EngineConfig {
	return EngineConfig{
		Resolution:        c.Resolution,
		MaxDepth:          c.MaxDepth,
		DivisionPrecision: c.DivisionPrecision,
	}
}

// ParamName normalizes a parameter name to its '@' form.
func ParamName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "@") {
		return name
	}
	return "@" + name
}
