package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ukaji3/vsdx-go/pkg/vsdx"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "List the pages and masters of a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), doc)
		},
	}
}

func writeInfo(w io.Writer, doc *vsdx.Document) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPAGE\tSHAPES\tCONNECTS")
	for i, page := range doc.Pages() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", i, page.Name(), len(page.AllShapes()), len(page.Connects()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if masters := doc.Masters(); len(masters) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Masters:")
		for _, m := range masters {
			fmt.Fprintf(w, "  %d\t%s\n", m.ID(), m.Name())
		}
	}
	return nil
}
