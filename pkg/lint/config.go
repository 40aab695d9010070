package lint

import "github.com/supaloboto/sisuo/pkg/core"

// Config controls which codes are reported and their severity.
type Config struct {
	// DisabledCodes contains codes to drop
	DisabledCodes map[string]bool

	// SeverityOverrides changes the severity of codes
	SeverityOverrides map[string]core.Severity
}

// NewConfig creates a default configuration with all codes enabled.
func NewConfig() *Config {
	return &Config{
		DisabledCodes:     make(map[string]bool),
		SeverityOverrides: make(map[string]core.Severity),
	}
}

// IsDisabled returns true if the code should be dropped.
func (c *Config) IsDisabled(code string) bool {
	if c == nil {
		return false
	}
	return c.DisabledCodes[code]
}

// GetSeverity returns the severity for a code, applying any override.
func (c *Config) GetSeverity(code string, defaultSeverity core.Severity) core.Severity {
	if c != nil {
		if sev, ok := c.SeverityOverrides[code]; ok {
			return sev
		}
	}
	return defaultSeverity
}

// Disable disables a code.
func (c *Config) Disable(code string) *Config {
	c.DisabledCodes[code] = true
	return c
}

// SetSeverity overrides the severity for a code.
func (c *Config) SetSeverity(code string, severity core.Severity) *Config {
	c.SeverityOverrides[code] = severity
	return c
}

// apply filters diags and rewrites their severities. Syntax errors are
// always kept as errors.
func (c *Config) apply(diags []Diagnostic) []Diagnostic {
	if c == nil {
		return diags
	}
	out := diags[:0]
	for _, d := range diags {
		if d.Code != CodeSyntax {
			if c.IsDisabled(d.Code) {
				continue
			}
			d.Severity = c.GetSeverity(d.Code, d.Severity)
		}
		out = append(out, d)
	}
	return out
}
