package cli

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the optional TOML configuration file.
//
//	verbose = true
//
//	[render]
//	context = "context.yaml"
//	skip_integrity_check = false
//
//	[inventory]
//	mode = "verbose"
//	pretty = true
type Config struct {
	Verbose   bool            `toml:"verbose"`
	Render    RenderConfig    `toml:"render"`
	Inventory InventoryConfig `toml:"inventory"`
}

// RenderConfig holds defaults for the render command.
type RenderConfig struct {
	Context            string `toml:"context"`
	SkipIntegrityCheck bool   `toml:"skip_integrity_check"`
}

// InventoryConfig holds defaults for the inventory command.
type InventoryConfig struct {
	Mode   string `toml:"mode"`
	Pretty bool   `toml:"pretty"`
}

// loadConfig reads the configuration at path. An empty path yields the zero
// configuration.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("read config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

func configFromContext(ctx context.Context) Config {
	cfg, _ := ctx.Value(configKey).(Config)
	return cfg
}
