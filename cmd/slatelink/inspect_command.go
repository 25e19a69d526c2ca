package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slatelink/internal/tabular"
)

const inspectPreviewRows = 10

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var allRows bool

	cmd := &cobra.Command{
		Use:   "inspect <table>",
		Short: "Preview a metadata table and how it was parsed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := tabular.NewLoader(ctx.ensureLogger()).Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Table:     %s\n", src.Path)
			fmt.Fprintf(out, "Encoding:  %s\n", src.Encoding)
			if src.Delimiter != 0 {
				fmt.Fprintf(out, "Delimiter: %q\n", string(src.Delimiter))
			}
			fmt.Fprintf(out, "Columns:   %d\n", len(src.Headers))
			fmt.Fprintf(out, "Rows:      %d\n", len(src.Rows))
			for _, warning := range src.Warnings {
				fmt.Fprintf(out, "Warning:   line %d: %s\n", warning.Line, warning.Reason)
			}

			limit := len(src.Rows)
			if !allRows && limit > inspectPreviewRows {
				limit = inspectPreviewRows
			}
			rows := make([][]string, 0, limit)
			for i := 0; i < limit; i++ {
				row := make([]string, len(src.Headers))
				for j, header := range src.Headers {
					row[j] = src.Rows[i][header]
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(out, src.Headers, rows, nil))
			if limit < len(src.Rows) {
				fmt.Fprintf(out, "... %d more rows (use --all to show them)\n", len(src.Rows)-limit)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&allRows, "all", false, "Show every row instead of the first few")
	return cmd
}
