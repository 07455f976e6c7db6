package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/expression"
	"gopkg.in/yaml.v3"
)

// loadContext reads a render context from a YAML, JSON or JSONC file, chosen
// by extension.
func loadContext(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx := make(map[string]any)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &ctx)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &ctx)
	default:
		return nil, fmt.Errorf("context %s: unsupported format %q (use .yaml, .json or .jsonc)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("context %s: %w", path, err)
	}
	return ctx, nil
}

// applySets merges "name=value" assignments into ctx. Values are coerced like
// cell values: integers, then floats, else strings.
func applySets(ctx map[string]any, sets []string) error {
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("invalid --set %q, expected name=value", s)
		}
		ctx[name] = expression.ParseValue(value)
	}
	return nil
}
