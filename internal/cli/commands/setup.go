package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/config"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/internal/engine"
	"github.com/supaloboto/sisuo/pkg/lint"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	lintCfg, err := cmdCtx.Cfg.Lint.Build()
	if err != nil {
		return nil, err
	}
	eng, err := createEngine(cmdCtx.Cfg, cmdCtx.Logger, lintCfg)
	if err != nil {
		return nil, err
	}
	cmdCtx.Engine = eng
	return cmdCtx, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only inspect tokens or the function registry.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		Resolution:        getEnvOrDefault("SISUO_RESOLUTION", config.DefaultResolution),
		MaxDepth:          config.DefaultMaxDepth,
		DivisionPrecision: config.DefaultDivisionPrecision,
		OutputFormat:      getEnvOrDefault("SISUO_OUTPUT", config.DefaultOutput),
		LogLevel:          getEnvOrDefault("SISUO_LOG_LEVEL", config.DefaultLogLevel),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(cfg *config.Config, logger *slog.Logger, lintCfg *lint.Config) (*engine.Engine, error) {
	engineCfg, err := engine.ConfigFrom(cfg.Engine())
	if err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	engineCfg.Lint = lintCfg
	engineCfg.Logger = logger

	return engine.New(engineCfg), nil
}

// readScript reads a script file.
func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
