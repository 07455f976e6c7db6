package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/inventory"
)

type inventoryOpts struct {
	output string // .json or .xlsx (default: JSON on stdout)
	pretty bool
	mode   string
}

func newInventoryCmd() *cobra.Command {
	var opts inventoryOpts

	cmd := &cobra.Command{
		Use:   "inventory [file]",
		Short: "Export pages, shapes and connects as JSON or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			if !cmd.Flags().Changed("pretty") {
				opts.pretty = cfg.Inventory.Pretty
			}
			if opts.mode == "" {
				opts.mode = cfg.Inventory.Mode
			}
			return runInventory(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file path, .json or .xlsx (default: stdout)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "pretty-print JSON output")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "extraction mode: light, standard, verbose")
	return cmd
}

func runInventory(ctx context.Context, w io.Writer, input string, opts *inventoryOpts) error {
	mode, err := inventory.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	doc, err := openDocument(ctx, input, false)
	if err != nil {
		return err
	}
	data := inventory.Build(doc, inventory.Options{Mode: mode})

	if strings.EqualFold(filepath.Ext(opts.output), ".xlsx") {
		if err := inventory.WriteXLSX(data, opts.output); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		loggerFromContext(ctx).Debug("wrote workbook", "path", opts.output, "pages", len(data.Pages))
		return nil
	}

	jsonData, err := inventory.ToJSON(data, opts.pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if opts.output != "" {
		if err := os.WriteFile(opts.output, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}
