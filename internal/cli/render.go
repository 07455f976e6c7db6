package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/template"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output        string   // output file path (default: <input>-rendered.vsdx)
	contextPath   string   // YAML, JSON or JSONC context file
	sets          []string // extra name=value context entries
	page          string   // render only this page
	skipIntegrity bool     // resync stale metadata instead of failing
}

func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [template.vsdx]",
		Short: "Render a template diagram against a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file path (default: <input>-rendered.vsdx)")
	cmd.Flags().StringVarP(&opts.contextPath, "context", "c", "", "context file (.yaml, .json, .jsonc)")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "context entry name=value (repeatable)")
	cmd.Flags().StringVar(&opts.page, "page", "", "render only the named page")
	cmd.Flags().BoolVar(&opts.skipIntegrity, "skip-integrity-check", false, "resync stale page metadata instead of failing")
	return cmd
}

func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)
	prog := newProgress(logger)

	contextPath := opts.contextPath
	if contextPath == "" {
		contextPath = cfg.Render.Context
	}
	data := make(map[string]any)
	if contextPath != "" {
		loaded, err := loadContext(contextPath)
		if err != nil {
			return err
		}
		data = loaded
	}
	if err := applySets(data, opts.sets); err != nil {
		return err
	}

	doc, err := openDocument(ctx, input, opts.skipIntegrity || cfg.Render.SkipIntegrityCheck)
	if err != nil {
		return err
	}

	engine := template.New(template.Options{Logger: logger})
	if opts.page != "" {
		page, err := doc.PageByName(opts.page)
		if err != nil {
			return err
		}
		if err := engine.RenderPage(page, data); err != nil {
			return fmt.Errorf("render %s: %w", input, err)
		}
	} else if err := engine.Render(doc, data); err != nil {
		return fmt.Errorf("render %s: %w", input, err)
	}

	output := opts.output
	if output == "" {
		output = derivedPath(input, "rendered")
	}
	if err := doc.Save(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	prog.done(fmt.Sprintf("Rendered %d pages to %s", len(doc.Pages()), output))
	return nil
}
