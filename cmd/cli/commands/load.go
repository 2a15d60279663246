package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/services"
	"github.com/jakechorley/data-curator/pkg/ingest"
)

// LoadCmd creates the load command
func LoadCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <path>",
		Short: "Load tables from a JSON file, or one entity from a JSON grid with --entity",
		Long: `Load tables into the session.

Without --entity the file holds {"clients": [...], "workers": [...], "tasks": [...]} and replaces all three tables.
With --entity the file holds a grid such as [["Worker ID", "Name"], ["W1", "Alice"]] and replaces that table;
its headers are mapped onto the entity's columns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, _ := cmd.Flags().GetString("entity")
			path := args[0]
			out := cmd.OutOrStdout()

			if entity == "" {
				tables, err := ingest.ReadTablesFile(path)
				if err != nil {
					return err
				}
				app.Session.SetTables(tables)
				printLoaded(out, tables)
				return nil
			}

			kind, err := model.ParseEntityKind(entity)
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open data file: %w", err)
			}
			defer f.Close()

			grid, err := ingest.ReadGrid(f)
			if err != nil {
				return err
			}

			table, mapping, err := services.IngestGrid(app.Ctx, grid, kind, app.Assistant, app.Logger)
			if err != nil {
				return err
			}
			app.Session.SetTable(kind, table)

			printMapping(out, kind, mapping)
			fmt.Fprintf(out, "✓ Loaded %d %s\n\n", len(table), kind)
			return nil
		},
	}

	cmd.Flags().String("entity", "", "Entity a grid file holds (clients, workers, tasks)")

	return cmd
}

// LoadSheetsCmd creates the load-sheets command
func LoadSheetsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load-sheets",
		Short: "Load all three tables from the configured Google spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.ConnectSheets == nil || app.Cfg.Sheets == nil {
				return fmt.Errorf("no sheets source configured")
			}

			getter, err := app.ConnectSheets()
			if err != nil {
				return err
			}

			result, err := services.IngestSheets(app.Ctx, getter, app.Cfg.Sheets, app.Assistant, app.Logger)
			if err != nil {
				return err
			}
			app.Session.SetTables(result.Tables)

			out := cmd.OutOrStdout()
			for _, kind := range model.EntityKinds {
				printMapping(out, kind, result.Mappings[kind])
			}
			printLoaded(out, result.Tables)

			app.Logger.Info("Loaded tables from sheets", zap.String("spreadsheet_id", app.Cfg.Sheets.SpreadsheetID))
			return nil
		},
	}
}

func printLoaded(out io.Writer, tables model.Tables) {
	fmt.Fprintf(out, "✓ Loaded %d clients, %d workers, %d tasks\n\n",
		len(tables.Clients), len(tables.Workers), len(tables.Tasks))
}

// printMapping lists renamed headers only
func printMapping(out io.Writer, kind model.EntityKind, mapping services.HeaderMapping) {
	if mapping.FellBack {
		fmt.Fprintf(out, "⚠️  %s headers mapped locally: %s\n", kind, mapping.Warning)
	}
	for i, original := range mapping.Original {
		if i < len(mapping.Mapped) && mapping.Mapped[i] != original {
			fmt.Fprintf(out, "  %s: %q → %s\n", kind, original, mapping.Mapped[i])
		}
	}
}
