package config

import (
	"fmt"

	"github.com/supaloboto/sisuo/pkg/logic"
)

// MaxDivisionPrecision caps division_precision.
const MaxDivisionPrecision = 1000

// Validate checks if the engine configuration is valid.
func (c *EngineConfig) Validate() error {
	if _, err := logic.ParseResolution(c.Resolution); err != nil {
		return fmt.Errorf("resolution: %w (want single-pass or two-pass)", err)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.DivisionPrecision < 1 || c.DivisionPrecision > MaxDivisionPrecision {
		return fmt.Errorf("division_precision must be between 1 and %d, got %d", MaxDivisionPrecision, c.DivisionPrecision)
	}
	return nil
}

// Validate checks if the project configuration is valid.
func (c *ProjectConfig) Validate() error {
	engine := c.Engine()
	if err := engine.Validate(); err != nil {
		return err
	}
	if _, err := c.Lint.Build(); err != nil {
		return err
	}
	return nil
}
