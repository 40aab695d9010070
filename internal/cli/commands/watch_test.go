package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/internal/cli/config"
	"github.com/supaloboto/sisuo/internal/cli/output"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestWatcher(t *testing.T, dir string, opts *EvalOptions) (*scriptWatcher, *syncBuffer, *syncBuffer) {
	t.Helper()

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	lintCfg, err := cfg.Lint.Build()
	require.NoError(t, err)
	logger := slog.New(slog.DiscardHandler)
	eng, err := createEngine(cfg, logger, lintCfg)
	require.NoError(t, err)

	out, errOut := new(syncBuffer), new(syncBuffer)
	return &scriptWatcher{
		path:  filepath.Join(dir, "scripts", "invoice.ss"),
		flags: pflag.NewFlagSet("watch", pflag.ContinueOnError),
		opts:  opts,
		cmdCtx: &CommandContext{
			Cfg:      cfg,
			Logger:   logger,
			Engine:   eng,
			Renderer: output.NewRendererWithTTY(out, errOut, false, output.ModeMarkdown),
		},
	}, out, errOut
}

func TestScriptWatcher_IsConfigFile(t *testing.T) {
	dir := setupProject(t, "markdown")
	w, _, _ := newTestWatcher(t, dir, &EvalOptions{})

	assert.True(t, w.isConfigFile(filepath.Join(dir, "sisuo.yaml")))
	assert.True(t, w.isConfigFile(filepath.Join(dir, "sisuo.yml")))
	assert.False(t, w.isConfigFile(filepath.Join(dir, "scripts", "sisuo.yaml")))
	assert.False(t, w.isConfigFile(filepath.Join(dir, "params.yaml")))
}

func TestScriptWatcher_Evaluate(t *testing.T) {
	dir := setupProject(t, "markdown")
	w, out, errOut := newTestWatcher(t, dir, &EvalOptions{Params: []string{"qty=3"}, Sets: []string{"price=10"}})

	w.evaluate(context.Background())
	assert.Contains(t, out.String(), "33")
	assert.Empty(t, errOut.String())

	w.opts.Params = []string{"broken"}
	w.evaluate(context.Background())
	assert.Contains(t, errOut.String(), "invalid --param")
}

func TestScriptWatcher_ReloadConfig(t *testing.T) {
	dir := setupProject(t, "markdown")
	w, _, _ := newTestWatcher(t, dir, &EvalOptions{})
	old := w.cmdCtx.Engine

	cfgPath := filepath.Join(dir, "sisuo.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("resolution: two-pass\nwatch:\n  debounce: 5ms\n"), 0o644))
	require.NoError(t, w.reloadConfig())
	assert.Equal(t, "two-pass", w.cmdCtx.Cfg.Resolution)
	assert.Equal(t, 5*time.Millisecond, w.debounce())
	assert.NotSame(t, old, w.cmdCtx.Engine)

	require.NoError(t, os.WriteFile(cfgPath, []byte("resolution: sideways\n"), 0o644))
	err := w.reloadConfig()
	require.ErrorContains(t, err, "config not reloaded")
	assert.Equal(t, "two-pass", w.cmdCtx.Cfg.Resolution, "previous configuration stays")
}

func TestScriptWatcher_Run(t *testing.T) {
	dir := setupProject(t, "markdown")
	cfgPath := filepath.Join(dir, "sisuo.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("params:\n  rate: 0.1\nwatch:\n  debounce: 10ms\n"), 0o644))
	config.ResetConfig()
	_, err := config.LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	w, out, _ := newTestWatcher(t, dir, &EvalOptions{Params: []string{"qty=3"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("41.25"))
	}, 5*time.Second, 20*time.Millisecond)

	script := "var qty = @qty;\nvar price = 10;\nvar subtotal = qty * price;\nvar tax = ROUND(subtotal * @rate, 2);\nref total = subtotal + tax;\n"
	require.NoError(t, os.WriteFile(w.path, []byte(script), 0o644))

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("| total | ref | 33 |"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
