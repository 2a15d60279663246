package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/services"
	"github.com/jakechorley/data-curator/pkg/core/validation"
)

// ValidateCmd creates the validate command
func ValidateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the loaded clients, workers and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, _ := cmd.Flags().GetString("entity")
			app.Logger.Debug("validate command", zap.String("entity", entity))

			result := services.ValidateTables(app.Session.Tables(), app.Logger)

			issues := result.Issues
			if entity != "" {
				kind, err := model.ParseEntityKind(entity)
				if err != nil {
					return err
				}
				issues = validation.Filter(issues, kind)
			}

			printValidation(cmd.OutOrStdout(), result, issues)
			return nil
		},
	}

	cmd.Flags().String("entity", "", "Only show issues for one entity (clients, workers, tasks)")

	return cmd
}

func printValidation(out io.Writer, result *services.ValidationResult, issues []model.ValidationIssue) {
	fmt.Fprintf(out, "\nValidation: %d errors, %d warnings\n", result.Summary.Errors, result.Summary.Warnings)
	for _, kind := range model.EntityKinds {
		counts := result.PerEntity[kind]
		fmt.Fprintf(out, "  %-8s %d errors, %d warnings\n", kind, counts.Errors, counts.Warnings)
	}

	if result.Clean() && len(issues) == 0 {
		fmt.Fprintf(out, "\n✓ No issues found\n\n")
		return
	}

	fmt.Fprintln(out)
	for _, issue := range issues {
		fmt.Fprintf(out, "  %s\n", formatIssue(issue))
	}
	fmt.Fprintln(out)
}

// formatIssue renders an issue as "[severity] entity row N column: message".
// Rows are numbered from 1 and table-level issues carry no row.
func formatIssue(issue model.ValidationIssue) string {
	location := string(issue.Entity)
	if issue.RowIndex != nil {
		location += fmt.Sprintf(" row %d", *issue.RowIndex+1)
	}
	if issue.Column != "" {
		location += " " + issue.Column
	}
	return fmt.Sprintf("[%s] %s: %s", issue.Severity, location, issue.Message)
}
