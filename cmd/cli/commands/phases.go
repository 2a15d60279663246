package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/data-curator/pkg/core/services"
)

// PhasesCmd creates the phases command
func PhasesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "phases",
		Short: "Show demand and worker capacity for each phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := services.PhaseReport(app.Session.Tables(), app.Calendar, app.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report) == 0 {
				fmt.Fprintf(out, "\nNo phases found. Workers need AvailableSlots and tasks need PreferredPhases.\n\n")
				return nil
			}

			fmt.Fprintf(out, "\n%-7s %-18s %7s %9s\n", "Phase", "Date", "Demand", "Capacity")
			for _, load := range report {
				date := "-"
				if load.Date != nil {
					date = load.Date.Format("Mon 02 Jan 2006")
				}
				marker := ""
				if load.Saturated {
					marker = "  ⚠️  saturated"
				}
				fmt.Fprintf(out, "%-7d %-18s %7d %9d%s\n", load.Phase, date, load.Demand, load.Capacity, marker)
			}
			fmt.Fprintln(out)

			return nil
		},
	}
}
