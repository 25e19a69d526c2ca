package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slatelink/internal/engine"
	"slatelink/internal/sidecar"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var tableFlag string
	var fieldsFlag []string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "export <image>",
		Short: "Resolve an image and write its XMP sidecar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.newEngine()
			if err != nil {
				return err
			}
			res, err := eng.Resolve(cmd.Context(), engine.ResolveRequest{
				ImagePath:      args[0],
				TablePath:      tableFlag,
				SelectedFields: fieldsFlag,
			})
			if err != nil {
				return err
			}
			if err := eng.Export(cmd.Context(), res, outputFlag); err != nil {
				return err
			}

			target := outputFlag
			if target == "" {
				target = sidecar.PathFor(res.ImagePath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tableFlag, "table", "t", "", "Metadata table path (default: located next to the image)")
	cmd.Flags().StringSliceVarP(&fieldsFlag, "field", "f", nil, "Restrict exported fields (repeatable)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Sidecar destination (default: image stem + .xmp)")
	return cmd
}
