package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"slatelink/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var imageFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sidecar exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("export journal is disabled; enable it in the [journal] config section")
			}
			store, err := ctx.ensureJournal()
			if err != nil {
				return err
			}

			var entries []journal.Entry
			if imageFlag != "" {
				entries, err = store.History(cmd.Context(), imageFlag)
			} else {
				entries, err = store.List(cmd.Context(), limitFlag)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No exports recorded.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					fmt.Sprintf("%d", e.ID),
					e.CreatedAt.Local().Format(time.DateTime),
					e.ImagePath,
					e.SidecarPath,
					shortDigest(e.ImageSHA256),
					shortDigest(e.TableSHA256),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "When", "Image", "Sidecar", "Image SHA", "Table SHA"},
				rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Show exports for one image only")
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum entries to list (0 for all)")
	return cmd
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
