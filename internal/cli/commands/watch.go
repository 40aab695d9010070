package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/supaloboto/sisuo/internal/cli/config"
	intconfig "github.com/supaloboto/sisuo/internal/config"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &EvalOptions{}
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-evaluate a script whenever it changes",
		Long: `Evaluate a script, then evaluate it again every time it is saved.

Changes to sisuo.yaml in the project root are picked up too: the
configuration is reloaded before the next evaluation. Events arriving
within watch.debounce of each other trigger a single evaluation.

Press Ctrl+C to stop.`,
		Example: `  sisuo watch invoice.ss --param qty=3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "Bind an external parameter (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.ParamsFile, "params", "", "YAML file of parameter bindings")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "Assign a declaration after evaluation (name=value, repeatable)")

	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// scriptWatcher re-evaluates one script on changes.
type scriptWatcher struct {
	path   string
	flags  *pflag.FlagSet
	opts   *EvalOptions
	cmdCtx *CommandContext
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts *EvalOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w := &scriptWatcher{
		path:   abs,
		flags:  cmd.Flags(),
		opts:   opts,
		cmdCtx: cmdCtx,
	}
	return w.run(ctx)
}

func (w *scriptWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files on save, so watch directories
	dirs := map[string]bool{filepath.Dir(w.path): true}
	if root := w.cmdCtx.Cfg.ProjectRoot; root != "" {
		dirs[root] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	logger := w.cmdCtx.Logger
	logger.Info("watching script", "path", w.path, "debounce", w.debounce())
	w.cmdCtx.Renderer.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", w.path))
	w.evaluate(ctx)

	// Debounce timer
	var debounce *time.Timer
	var fire <-chan time.Time
	reload := false

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only handle write/create events for relevant files
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			isScript := filepath.Clean(event.Name) == w.path
			isConfig := w.isConfigFile(event.Name)
			if !isScript && !isConfig {
				continue
			}
			logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			reload = reload || isConfig

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.debounce())
			fire = debounce.C

		case <-fire:
			fire = nil
			if reload {
				reload = false
				if err := w.reloadConfig(); err != nil {
					w.cmdCtx.Renderer.Error(err.Error())
					continue
				}
			}
			w.evaluate(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *scriptWatcher) debounce() time.Duration {
	return w.cmdCtx.Cfg.GetWatchConfig().Debounce
}

func (w *scriptWatcher) isConfigFile(name string) bool {
	base := filepath.Base(name)
	if base != intconfig.ConfigFileName && base != intconfig.ConfigFileNameAlt {
		return false
	}
	return filepath.Dir(filepath.Clean(name)) == filepath.Clean(w.cmdCtx.Cfg.ProjectRoot)
}

// reloadConfig reloads the configuration with the same flags and rebuilds
// the engine. On error the previous configuration stays in effect.
func (w *scriptWatcher) reloadConfig() error {
	cfgFile := config.GetConfigFileUsed()
	if cfgFile == "" {
		cfgFile = intconfig.FindConfigFile(w.cmdCtx.Cfg.ProjectRoot)
	}

	config.ResetConfig()
	cfg, err := config.LoadConfig(cfgFile, w.flags)
	if err != nil {
		return fmt.Errorf("config not reloaded: %w", err)
	}

	lintCfg, err := cfg.Lint.Build()
	if err != nil {
		return fmt.Errorf("config not reloaded: %w", err)
	}
	eng, err := createEngine(cfg, w.cmdCtx.Logger, lintCfg)
	if err != nil {
		return fmt.Errorf("config not reloaded: %w", err)
	}

	w.cmdCtx.Cfg = cfg
	w.cmdCtx.Engine = eng
	w.cmdCtx.Logger.Info("configuration reloaded", "path", cfgFile)
	return nil
}

// evaluate runs the script once and renders the result.
func (w *scriptWatcher) evaluate(ctx context.Context) {
	r := w.cmdCtx.Renderer

	params, err := loadParams(w.cmdCtx.Cfg, w.opts.ParamsFile, w.opts.Params)
	if err != nil {
		r.Error(err.Error())
		return
	}
	sets, err := parseSets(w.opts.Sets)
	if err != nil {
		r.Error(err.Error())
		return
	}

	results, err := evalFiles(ctx, w.cmdCtx.Engine, []string{w.path}, params, sets, 1)
	if err != nil {
		r.Error(err.Error())
		return
	}
	r.Muted(time.Now().Format(time.TimeOnly))
	renderEvalResults(r, results)
}
