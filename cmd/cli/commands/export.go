package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/rules"
	"github.com/jakechorley/data-curator/pkg/export"
)

// ExportCSVCmd creates the export-csv command
func ExportCSVCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv <entity>",
		Short: "Export one entity table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("out")
			table := app.Session.Tables().Get(kind)

			err = writeOutput(cmd.OutOrStdout(), path, func(w io.Writer) error {
				return export.WriteCSV(w, kind, table)
			})
			if err != nil {
				return err
			}

			app.Logger.Info("Exported CSV", zap.String("entity", string(kind)), zap.Int("rows", len(table)), zap.String("path", path))
			return nil
		},
	}

	cmd.Flags().String("out", "", "Write to this file instead of stdout")

	return cmd
}

// ExportConfigCmd creates the export-config command
func ExportConfigCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-config",
		Short: "Export rules and weights as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("out")
			store := app.Session.Store()

			return writeOutput(cmd.OutOrStdout(), path, func(w io.Writer) error {
				return export.ExportConfig(w, store)
			})
		},
	}

	cmd.Flags().String("out", "", "Write to this file instead of stdout")

	return cmd
}

// ImportConfigCmd creates the import-config command
func ImportConfigCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import-config <path>",
		Short: "Replace rules and weights with a previously exported config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open config: %w", err)
			}
			defer f.Close()

			imported, err := export.ImportConfig(f)
			if err != nil {
				return err
			}

			store, _ := app.Session.UpdateStore(func(rules.Store) (rules.Store, error) {
				return imported, nil
			})

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d rules\n", len(store.ListRules()))
			return nil
		},
	}
}

// writeOutput runs write against the file at path, or against stdout when path is empty
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(stdout, "✓ Written to %s\n", path)
	return nil
}
