package config

import (
	"time"

	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/formula"
)

// Default configuration values.
const (
	DefaultResolution        = "single-pass"
	DefaultMaxDepth          = exec.DefaultMaxDepth
	DefaultDivisionPrecision = formula.DefaultDivisionPrecision
	DefaultWatchDebounce     = 200 * time.Millisecond
)

// ApplyDefaults applies default values to an EngineConfig.
func (c *EngineConfig) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.Resolution == "" {
		c.Resolution = DefaultResolution
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.DivisionPrecision == 0 {
		c.DivisionPrecision = DefaultDivisionPrecision
	}
}

// ApplyDefaults applies default values to a ProjectConfig.
func (c *ProjectConfig) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.Resolution == "" {
		c.Resolution = DefaultResolution
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.DivisionPrecision == 0 {
		c.DivisionPrecision = DefaultDivisionPrecision
	}
	if c.Watch == nil {
		c.Watch = &WatchConfig{}
	}
	ApplyWatchDefaults(c.Watch)
}

// ApplyWatchDefaults applies default values to a WatchConfig.
func ApplyWatchDefaults(w *WatchConfig) {
	if w == nil {
		return
	}
	if w.Debounce <= 0 {
		w.Debounce = DefaultWatchDebounce
	}
}
