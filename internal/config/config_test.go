package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/pkg/core"
)

func TestEngineConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       EngineConfig
		errSubstr string
	}{
		{name: "defaults", cfg: EngineConfig{}},
		{name: "two-pass", cfg: EngineConfig{Resolution: "two-pass"}},
		{name: "unknown resolution", cfg: EngineConfig{Resolution: "lazy"}, errSubstr: "resolution"},
		{name: "negative depth", cfg: EngineConfig{MaxDepth: -1}, errSubstr: "max_depth"},
		{name: "precision too large", cfg: EngineConfig{DivisionPrecision: 5000}, errSubstr: "division_precision"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestEngineConfig_ApplyDefaults(t *testing.T) {
	cfg := EngineConfig{MaxDepth: 10}
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultResolution, cfg.Resolution)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, int32(DefaultDivisionPrecision), cfg.DivisionPrecision)
}

func TestLintConfig_Build(t *testing.T) {
	lc := &LintConfig{
		Disabled: []string{"unused-param"},
		Severity: map[string]string{"unresolved-name": "ERROR"},
	}
	out, err := lc.Build()
	require.NoError(t, err)
	assert.True(t, out.IsDisabled("unused-param"))
	assert.Equal(t, core.SeverityError, out.GetSeverity("unresolved-name", core.SeverityWarning))

	_, err = (&LintConfig{Severity: map[string]string{"x": "fatal"}}).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown severity")

	var none *LintConfig
	out, err = none.Build()
	require.NoError(t, err)
	assert.False(t, out.IsDisabled("anything"))
}

func TestParamName(t *testing.T) {
	assert.Equal(t, "@price", ParamName("price"))
	assert.Equal(t, "@price", ParamName("@price"))
	assert.Equal(t, "@qty", ParamName(" qty "))
}

func TestLoadFromDir(t *testing.T) {
	t.Run("no config file", func(t *testing.T) {
		cfg, err := LoadFromDir(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("yaml file", func(t *testing.T) {
		dir := t.TempDir()
		content := `resolution: two-pass
max_depth: 64
params:
  price: "4"
watch:
  debounce: 500ms
lint:
  disabled: [unused-function]
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o600))

		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "two-pass", cfg.Resolution)
		assert.Equal(t, 64, cfg.MaxDepth)
		assert.Equal(t, int32(DefaultDivisionPrecision), cfg.DivisionPrecision)
		assert.Equal(t, "4", cfg.Params["price"])
		assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
		assert.Equal(t, []string{"unused-function"}, cfg.Lint.Disabled)
	})

	t.Run("alternate name", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte("max_depth: 8\n"), 0o600))
		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.MaxDepth)
		assert.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)
	})

	t.Run("invalid value", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("resolution: lazy\n"), 0o600))
		_, err := LoadFromDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(""), 0o600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, "", FindConfigFile(nested))
}
