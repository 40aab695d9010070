package commands

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supaloboto/sisuo/internal/cli/config"
	intconfig "github.com/supaloboto/sisuo/internal/config"
	"github.com/supaloboto/sisuo/internal/engine"
	"github.com/supaloboto/sisuo/pkg/formula"
	"gopkg.in/yaml.v3"
)

// loadParams merges parameter bindings. Later sources win:
// config params < params file < --param flags.
func loadParams(cfg *config.Config, file string, flags []string) (map[string]formula.Value, error) {
	params := make(map[string]formula.Value)

	for name, raw := range cfg.Params {
		params[intconfig.ParamName(name)] = engine.ParseValue(raw)
	}

	if file == "" {
		file = cfg.ParamsFile
	}
	if file != "" {
		fromFile, err := readParamsFile(file)
		if err != nil {
			return nil, err
		}
		for name, v := range fromFile {
			params[name] = v
		}
	}

	for _, f := range flags {
		name, v, ok := engine.ParseAssignment(f)
		if !ok {
			return nil, fmt.Errorf("invalid --param %q: want name=value", f)
		}
		params[intconfig.ParamName(name)] = v
	}

	return params, nil
}

// parseSets parses --set flags in order.
func parseSets(flags []string) ([]engine.Assignment, error) {
	out := make([]engine.Assignment, 0, len(flags))
	for _, f := range flags {
		name, v, ok := engine.ParseAssignment(f)
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want name=value", f)
		}
		out = append(out, engine.Assignment{Name: name, Value: v})
	}
	return out, nil
}

// readParamsFile reads a YAML mapping of parameter names to values.
func readParamsFile(path string) (map[string]formula.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse params file %s: %w", path, err)
	}

	out := make(map[string]formula.Value, len(raw))
	for name, v := range raw {
		fv, err := yamlValue(v)
		if err != nil {
			return nil, fmt.Errorf("params file %s: %s: %w", path, name, err)
		}
		out[intconfig.ParamName(name)] = fv
	}
	return out, nil
}

// yamlValue converts a decoded YAML scalar or sequence into a value.
func yamlValue(v any) (formula.Value, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case bool:
		return v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case time.Time:
		return v, nil
	case []any:
		out := make([]formula.Value, len(v))
		for i, e := range v {
			ev, err := yamlValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}
