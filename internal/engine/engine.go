// Package engine is the host side of the formula pipeline. It compiles
// script text into programs, runs them against parameter bindings and keeps
// interactive sessions whose values can be changed and read back.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/supaloboto/sisuo/internal/config"
	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/lint"
	"github.com/supaloboto/sisuo/pkg/logic"
)

// Engine compiles and runs scripts with one set of settings.
type Engine struct {
	// Structured logger
	logger *slog.Logger

	resolution logic.Resolution
	maxDepth   int
	runtime    *formula.Runtime
	lint       *lint.Config
}

// Config holds engine configuration.
type Config struct {
	// Resolution selects how names are matched to declarations
	Resolution logic.Resolution
	// MaxDepth bounds nested evaluation (0 uses exec.DefaultMaxDepth)
	MaxDepth int
	// DivisionPrecision is the number of places kept by division (0 uses the default)
	DivisionPrecision int32
	// Registry replaces the formula function registry (optional)
	Registry *formula.Registry
	// Clock replaces the wall clock used by date functions (optional)
	Clock formula.Clock
	// Lint filters and re-grades compile diagnostics (optional)
	Lint *lint.Config
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// ConfigFrom converts shared configuration into an engine Config.
func ConfigFrom(c config.EngineConfig) (Config, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	res, err := logic.ParseResolution(c.Resolution)
	if err != nil {
		return Config{}, fmt.Errorf("resolution: %w", err)
	}
	return Config{
		Resolution:        res,
		MaxDepth:          c.MaxDepth,
		DivisionPrecision: c.DivisionPrecision,
	}, nil
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []formula.Option{formula.WithDivisionPrecision(cfg.DivisionPrecision)}
	if cfg.Registry != nil {
		opts = append(opts, formula.WithRegistry(cfg.Registry))
	}
	if cfg.Clock != nil {
		opts = append(opts, formula.WithClock(cfg.Clock))
	}

	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = exec.DefaultMaxDepth
	}

	logger.Debug("initializing engine",
		"resolution", cfg.Resolution.String(),
		"max_depth", maxDepth)

	return &Engine{
		logger:     logger,
		resolution: cfg.Resolution,
		maxDepth:   maxDepth,
		runtime:    formula.New(opts...),
		lint:       cfg.Lint,
	}
}

// Runtime returns the formula runtime shared by all programs of the engine.
func (e *Engine) Runtime() *formula.Runtime {
	return e.runtime
}

// Resolution returns the name resolution mode.
func (e *Engine) Resolution() logic.Resolution {
	return e.resolution
}

func (e *Engine) executor(logger *slog.Logger) *exec.Executor {
	return exec.New(
		exec.WithRuntime(e.runtime),
		exec.WithMaxDepth(e.maxDepth),
		exec.WithLogger(logger),
	)
}
