package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"slatelink/internal/engine"
	"slatelink/internal/match"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var tableFlag string
	var fieldsFlag []string

	cmd := &cobra.Command{
		Use:   "resolve <image>",
		Short: "Match an image to its metadata row and show the resolved layout",
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
			printResolution(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tableFlag, "table", "t", "", "Metadata table path (default: located next to the image)")
	cmd.Flags().StringSliceVarP(&fieldsFlag, "field", "f", nil, "Restrict output to these fields (repeatable)")
	return cmd
}

func printResolution(out io.Writer, res *engine.Resolution) {
	fmt.Fprintf(out, "Image:    %s\n", res.ImagePath)
	fmt.Fprintf(out, "Table:    %s (%s, delimiter %q)\n",
		res.TablePath, res.Source.Encoding, string(res.Source.Delimiter))
	fmt.Fprintf(out, "Identity: %s\n", res.Identity)
	fmt.Fprintf(out, "Join key: %s (%s)\n", res.Match.JoinKey, res.Resolved.JoinKeySource)

	switch res.Match.Outcome {
	case match.OutcomeMatched:
		fmt.Fprintf(out, "Match:    row %d via %s (confidence %.2f)\n",
			res.Match.RowIndex+1, res.Match.Method, res.Match.Confidence)
	case match.OutcomeAmbiguous:
		fmt.Fprintf(out, "Match:    AMBIGUOUS across rows %s\n", joinRowNumbers(res.Match.Candidates))
	default:
		fmt.Fprintf(out, "Match:    none (%s)\n", res.Match.Reason)
	}

	if res.Match.Outcome == match.OutcomeMatched {
		fmt.Fprintf(out, "Corner:   %s%s\n", res.Plan.BarCorner, autoSuffix(res.Plan.BarCornerAuto))
		fmt.Fprintf(out, "Order:    %s\n", res.Resolved.OrderSource)
		fmt.Fprintln(out, renderFieldTable(out, res))
	}

	if res.Fault != nil {
		fmt.Fprintf(out, "BLOCKED:  %v\n", res.Fault)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(out, "Warning:  %s\n", warning)
	}
}

func renderFieldTable(out io.Writer, res *engine.Resolution) string {
	rows := make([][]string, 0, len(res.Fields))
	for _, field := range res.Fields {
		placement := "bar"
		source := res.Resolved.OrderSource.String()
		if pos, pinned := res.Resolved.Positions[field]; pinned {
			placement = fmt.Sprintf("pinned (%.4f, %.4f)", pos.X, pos.Y)
			source = res.Resolved.PositionSources[field].String()
		}
		rows = append(rows, []string{field, res.Match.Row[field], placement, source})
	}
	return renderTable(out, []string{"Field", "Value", "Placement", "Source"}, rows, nil)
}

func joinRowNumbers(candidates []int) string {
	nums := make([]string, 0, len(candidates))
	for _, idx := range candidates {
		nums = append(nums, fmt.Sprintf("%d", idx+1))
	}
	return strings.Join(nums, ", ")
}

func autoSuffix(auto bool) string {
	if auto {
		return " (auto)"
	}
	return ""
}
