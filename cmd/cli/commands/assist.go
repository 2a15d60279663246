package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

// QueryCmd creates the query command
func QueryCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "query <entity> <question...>",
		Short: "Filter an entity's rows with a plain-language query",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseEntityKind(args[0])
			if err != nil {
				return err
			}

			rows := app.Session.Tables().Get(kind)
			result := app.Assistant.QueryData(app.Ctx, strings.Join(args[1:], " "), rows, kind)

			out := cmd.OutOrStdout()
			if result.FellBack {
				fmt.Fprintf(out, "⚠️  Collaborator unavailable, matched locally: %v\n", result.Err)
			}

			fmt.Fprintf(out, "\n%d of %d %s match:\n\n", len(result.Value), len(rows), kind)
			pk := schema.PrimaryKey(kind)
			for _, row := range result.Value {
				fmt.Fprintf(out, "  %s\n", fields.CellString(row[pk]))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// CorrectionsCmd creates the corrections command
func CorrectionsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "corrections <entity>",
		Short: "Suggest fixes for invalid values in an entity table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseEntityKind(args[0])
			if err != nil {
				return err
			}

			result := app.Assistant.SuggestCorrections(app.Ctx, app.Session.Tables().Get(kind), kind)

			out := cmd.OutOrStdout()
			if result.FellBack {
				fmt.Fprintf(out, "⚠️  Collaborator unavailable, using local suggestions: %v\n", result.Err)
			}
			if len(result.Value) == 0 {
				fmt.Fprintf(out, "\nNo corrections suggested\n\n")
				return nil
			}

			fmt.Fprintln(out)
			for _, c := range result.Value {
				fmt.Fprintf(out, "  row %d %s: %q → %q (%.0f%%) %s\n",
					c.RowIndex+1, c.Column, c.CurrentValue, c.SuggestedValue, c.Confidence*100, c.Reason)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// ReviewCmd creates the review command
func ReviewCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review <entity>",
		Short: "Look for problems the validation rules do not cover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseEntityKind(args[0])
			if err != nil {
				return err
			}

			result := app.Assistant.ValidateWithExternalModel(app.Ctx, app.Session.Tables().Get(kind), kind)

			out := cmd.OutOrStdout()
			if result.FellBack {
				fmt.Fprintf(out, "⚠️  Collaborator unavailable, reviewed locally: %v\n", result.Err)
			}
			if len(result.Value) == 0 {
				fmt.Fprintf(out, "\nNothing to report\n\n")
				return nil
			}

			fmt.Fprintln(out)
			for _, issue := range result.Value {
				fmt.Fprintf(out, "  [%s] %s: %s\n", issue.Severity, issue.Field, issue.Message)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
