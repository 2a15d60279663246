package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/services"
)

// AllocateCmd creates the allocate command
func AllocateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Preview ranked allocation candidates with the current weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("breakdown")
			app.Logger.Debug("allocate command", zap.Bool("breakdown", verbose))

			preview := services.PreviewAllocation(app.Session.Tables(), app.Session.Store(), app.Logger)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "\n🎯 Allocation Preview\n\n")
			fmt.Fprintf(out, "Weights: priority %g, fairness %g, cost %g, workload %g\n",
				preview.Weights.PriorityLevel,
				preview.Weights.Fairness,
				preview.Weights.Cost,
				preview.Weights.Workload)
			fmt.Fprintf(out, "Rules:   %d stored\n", preview.RuleCount)
			if preview.Validation.Errors > 0 {
				fmt.Fprintf(out, "⚠️  Data has %d validation errors; run validate for details\n", preview.Validation.Errors)
			}
			fmt.Fprintln(out)

			if len(preview.Candidates) == 0 {
				fmt.Fprintf(out, "No candidates. Check that clients request known tasks and workers have the required skills.\n\n")
				return nil
			}

			fmt.Fprintf(out, "%-4s %-22s %-22s %-22s %8s\n", "#", "Client", "Task", "Worker", "Score")
			fmt.Fprintln(out, strings.Repeat("-", 82))
			for i, c := range preview.Candidates {
				fmt.Fprintf(out, "%-4d %-22s %-22s %-22s %8.2f\n",
					i+1,
					label(c.ClientID, c.ClientName),
					label(c.TaskID, c.TaskName),
					label(c.WorkerID, c.WorkerName),
					c.Score)
				if verbose {
					fmt.Fprintf(out, "     %s\n", c.Reason)
				}
			}
			fmt.Fprintln(out)

			return nil
		},
	}

	cmd.Flags().Bool("breakdown", false, "Show the score breakdown of each candidate")

	return cmd
}

// label joins an ID and display name, truncated to fit a table column
func label(id, name string) string {
	s := id
	if name != "" {
		s = fmt.Sprintf("%s %s", id, name)
	}
	if runes := []rune(s); len(runes) > 21 {
		s = string(runes[:20]) + "…"
	}
	return s
}
