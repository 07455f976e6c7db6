// Package cli implements the vsdx command-line interface.
//
// Commands:
//   - info: list pages, masters and shape counts
//   - render: render a template diagram against a YAML/JSON context
//   - replace: find and replace text across pages
//   - inventory: export pages, shapes and connects as JSON or XLSX
//
// All commands support --verbose (-v) for debug-level logging and --config
// for a TOML configuration file. The logger and the configuration are passed
// through the command context.
package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// Execute runs the vsdx CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "vsdx",
		Short:        "Inspect, edit and render Visio diagrams",
		Long:         `vsdx reads .vsdx diagrams, renders them as templates and exports their shape inventory.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			level := charmlog.InfoLevel
			if verbose || cfg.Verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level))
			ctx = withConfig(ctx, cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("vsdx %s\n", version))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")

	root.AddCommand(newInfoCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newReplaceCmd())
	root.AddCommand(newInventoryCmd())
	return root
}
