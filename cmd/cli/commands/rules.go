package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/allocator"
	"github.com/jakechorley/data-curator/pkg/core/rules"
)

// RulesCmd creates the rules command and its subcommands
func RulesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List, add and remove business rules",
	}

	cmd.AddCommand(listRulesCmd(app))
	cmd.AddCommand(addRuleCmd(app))
	cmd.AddCommand(removeRuleCmd(app))
	cmd.AddCommand(recommendRulesCmd(app))

	return cmd
}

func listRulesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			stored := app.Session.Store().ListRules()

			if len(stored) == 0 {
				fmt.Fprintf(out, "\nNo rules defined\n\n")
				return nil
			}

			fmt.Fprintf(out, "\n%d rules:\n\n", len(stored))
			for i, rule := range stored {
				fmt.Fprintf(out, "  %2d. [%s] %s\n", i, rule.Type, rule.Summary())
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func addRuleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <description...>",
		Short: "Parse a rule from plain text and store it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			text := strings.Join(args, " ")

			result := app.Assistant.ParseRule(app.Ctx, text, collaborator.NewRuleContext(app.Session.Tables()))
			out := cmd.OutOrStdout()
			if result.FellBack {
				fmt.Fprintf(out, "⚠️  Collaborator unavailable, parsed locally: %v\n", result.Err)
			}

			rule := result.Value
			fmt.Fprintf(out, "\nParsed rule: [%s] %s\n", rule.Type, rule.Summary())
			if dryRun {
				fmt.Fprintf(out, "Mode: 🧪 DRY RUN (not stored)\n\n")
				return nil
			}

			store, _ := app.Session.UpdateStore(func(st rules.Store) (rules.Store, error) {
				return st.AddRule(rule), nil
			})
			stored := store.ListRules()
			app.Logger.Info("Rule added", zap.String("type", string(rule.Type)), zap.Int("rules", len(stored)))

			fmt.Fprintf(out, "✓ Stored as rule %d (%s)\n\n", len(stored)-1, stored[len(stored)-1].ID)
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Parse and display the rule without storing it")

	return cmd
}

func removeRuleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove the rule at a position shown by rules list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be a number, got: %s", args[0])
			}

			store, err := app.Session.UpdateStore(func(st rules.Store) (rules.Store, error) {
				return st.RemoveRule(index)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed rule %d, %d remaining\n", index, len(store.ListRules()))
			return nil
		},
	}
}

func recommendRulesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Suggest rules from patterns in the loaded data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := app.Assistant.RecommendRules(app.Ctx, app.Session.Tables())
			out := cmd.OutOrStdout()
			if result.FellBack {
				fmt.Fprintf(out, "⚠️  Collaborator unavailable, using local suggestions: %v\n", result.Err)
			}

			if len(result.Value) == 0 {
				fmt.Fprintf(out, "\nNo rule suggestions\n\n")
				return nil
			}

			fmt.Fprintln(out)
			for _, s := range result.Value {
				fmt.Fprintf(out, "  [%s] %s\n      %s\n", s.Rule.Type, s.Rule.Summary(), s.Reason)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// WeightsCmd creates the weights command and its subcommands
func WeightsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Show and set scoring weights",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			weights := app.Session.Store().CurrentWeights().AsMap()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out)
			for _, key := range allocator.WeightKeys {
				fmt.Fprintf(out, "  %-26s %g\n", key, weights[key])
			}
			fmt.Fprintln(out)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one weight (" + strings.Join(allocator.WeightKeys, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("value must be a number, got: %s", args[1])
			}

			if _, err := app.Session.UpdateStore(func(st rules.Store) (rules.Store, error) {
				return st.SetWeight(args[0], value)
			}); err != nil {
				return err
			}

			app.Logger.Info("Weight updated", zap.String("key", args[0]), zap.Float64("value", value))
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s set to %g\n", args[0], value)
			return nil
		},
	})

	return cmd
}
