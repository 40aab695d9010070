package commands

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/internal/cli/config"
	"github.com/supaloboto/sisuo/internal/cli/testutil"
	"github.com/supaloboto/sisuo/pkg/formula"
)

func TestYAMLValue(t *testing.T) {
	when := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want formula.Value
	}{
		{"nil", nil, nil},
		{"string", "abc", "abc"},
		{"bool", true, true},
		{"int", 3, decimal.NewFromInt(3)},
		{"int64", int64(-4), decimal.NewFromInt(-4)},
		{"float", 1.5, decimal.NewFromFloat(1.5)},
		{"time", when, when},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := yamlValue(tt.in)
			require.NoError(t, err)
			if d, ok := tt.want.(decimal.Decimal); ok {
				require.IsType(t, decimal.Decimal{}, got)
				assert.True(t, d.Equal(got.(decimal.Decimal)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	big, err := yamlValue(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", big.(decimal.Decimal).String())

	list, err := yamlValue([]any{1, "a"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list.([]formula.Value)[1])

	_, err = yamlValue(map[string]any{"a": 1})
	assert.Error(t, err)

	_, err = yamlValue([]any{map[string]any{}})
	assert.Error(t, err)
}

func TestReadParamsFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "params.yaml", "qty: 2\n\"@name\": Alice\nflags: [1, 2]\n")

	params, err := readParamsFile(path)
	require.NoError(t, err)
	assert.Len(t, params, 3)
	assert.Equal(t, "Alice", params["@name"])
	assert.Equal(t, "2", formula.Format(params["@qty"]))
	assert.Contains(t, params, "@flags")

	_, err = readParamsFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read params file")

	bad := testutil.WriteFile(t, dir, "bad.yaml", "qty: [\n")
	_, err = readParamsFile(bad)
	assert.ErrorContains(t, err, "failed to parse params file")

	nested := testutil.WriteFile(t, dir, "nested.yaml", "qty:\n  a: 1\n")
	_, err = readParamsFile(nested)
	assert.ErrorContains(t, err, "qty")
}

func TestLoadParams_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := testutil.WriteFile(t, dir, "cfg-params.yaml", "b: 20\nc: 30\n")
	explicit := testutil.WriteFile(t, dir, "explicit.yaml", "c: 300\n")

	cfg := &config.Config{
		Params:     map[string]string{"a": "1", "b": "2", "c": "3"},
		ParamsFile: cfgFile,
	}

	params, err := loadParams(cfg, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", formula.Format(params["@a"]))
	assert.Equal(t, "20", formula.Format(params["@b"]))
	assert.Equal(t, "30", formula.Format(params["@c"]))

	params, err = loadParams(cfg, explicit, []string{"a=100", "@d=x"})
	require.NoError(t, err)
	assert.Equal(t, "100", formula.Format(params["@a"]))
	assert.Equal(t, "2", formula.Format(params["@b"]), "explicit file replaces the configured one")
	assert.Equal(t, "300", formula.Format(params["@c"]))
	assert.Equal(t, "x", formula.Format(params["@d"]))

	_, err = loadParams(cfg, "", []string{"novalue"})
	assert.ErrorContains(t, err, "invalid --param")
}

func TestParseSets(t *testing.T) {
	sets, err := parseSets([]string{"qty=5", "@rate=0.5"})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "qty", sets[0].Name)
	assert.Equal(t, "@rate", sets[1].Name)
	assert.Equal(t, "0.5", formula.Format(sets[1].Value))

	_, err = parseSets([]string{"=1"})
	assert.ErrorContains(t, err, "invalid --set")
}
