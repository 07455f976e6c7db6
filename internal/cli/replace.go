package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ukaji3/vsdx-go/pkg/vsdx"
)

type replaceOpts struct {
	find    string
	replace string
	output  string // default: overwrite the input
	page    string
}

func newReplaceCmd() *cobra.Command {
	var opts replaceOpts

	cmd := &cobra.Command{
		Use:   "replace [file]",
		Short: "Find and replace text in shape text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.find == "" {
				return errors.New("--find must not be empty")
			}
			return runReplace(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.find, "find", "", "text to find")
	cmd.Flags().StringVar(&opts.replace, "replace", "", "replacement text")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file path (default: overwrite input)")
	cmd.Flags().StringVar(&opts.page, "page", "", "limit to the named page")
	_ = cmd.MarkFlagRequired("find")
	return cmd
}

func runReplace(ctx context.Context, w io.Writer, input string, opts *replaceOpts) error {
	logger := loggerFromContext(ctx)
	doc, err := openDocument(ctx, input, false)
	if err != nil {
		return err
	}

	pages := doc.Pages()
	if opts.page != "" {
		page, err := doc.PageByName(opts.page)
		if err != nil {
			return err
		}
		pages = []*vsdx.Page{page}
	}

	total := 0
	for _, page := range pages {
		n := page.FindReplace(opts.find, opts.replace)
		logger.Debug("replaced", "page", page.Name(), "shapes", n)
		total += n
	}

	output := opts.output
	if output == "" {
		output = input
	}
	if err := doc.Save(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(w, "%d shapes updated\n", total)
	return nil
}
