package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/cmd/cli/commands"
	"github.com/jakechorley/data-curator/internal/config"
	"github.com/jakechorley/data-curator/pkg/clients/sheetsclient"
	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/phases"
	"github.com/jakechorley/data-curator/pkg/core/services"
	"github.com/jakechorley/data-curator/pkg/ingest"
	"github.com/jakechorley/data-curator/pkg/utils/logging"
)

var (
	env      string
	dataPath string
	verbose  bool
	app      = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Data Curator CLI - Validate and allocate client, worker and task data",
		Long:  `A CLI tool for cleaning client, worker and task tables, managing allocation rules and weights, and previewing allocations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "JSON file of clients, workers and tasks to load at startup")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	// Add all commands
	rootCmd.AddCommand(commands.LoadCmd(app))
	rootCmd.AddCommand(commands.LoadSheetsCmd(app))
	rootCmd.AddCommand(commands.ValidateCmd(app))
	rootCmd.AddCommand(commands.AllocateCmd(app))
	rootCmd.AddCommand(commands.PhasesCmd(app))
	rootCmd.AddCommand(commands.RulesCmd(app))
	rootCmd.AddCommand(commands.WeightsCmd(app))
	rootCmd.AddCommand(commands.ExportCSVCmd(app))
	rootCmd.AddCommand(commands.ExportConfigCmd(app))
	rootCmd.AddCommand(commands.ImportConfigCmd(app))
	rootCmd.AddCommand(commands.QueryCmd(app))
	rootCmd.AddCommand(commands.CorrectionsCmd(app))
	rootCmd.AddCommand(commands.ReviewCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, collaborator and the session
func initApp() error {
	var err error
	app.Ctx = context.Background()

	// Initialize logger
	var logPath string
	app.Logger, logPath, err = logging.New(logging.Options{Env: env, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env), zap.String("log_file", logPath))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Initialize collaborator
	app.Assistant, err = newAssistant(app.Ctx, app.Cfg, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create collaborator: %w", err)
	}

	// Initialize phase calendar
	if app.Cfg.Phases != nil {
		start, err := app.Cfg.PhaseStart()
		if err != nil {
			return err
		}
		app.Calendar, err = phases.NewCalendar(app.Cfg.Phases.RRule, start)
		if err != nil {
			return fmt.Errorf("failed to create phase calendar: %w", err)
		}
		app.Logger.Debug("Phase calendar initialized", zap.String("rrule", app.Cfg.Phases.RRule))
	}

	app.Session = services.NewSession(app.Cfg.DefaultWeights())

	if app.Cfg.Sheets != nil {
		app.ConnectSheets = sheetsConnector()
	}

	// Load initial data
	if dataPath != "" {
		app.Logger.Info("Loading data file", zap.String("path", dataPath))
		tables, err := ingest.ReadTablesFile(dataPath)
		if err != nil {
			return err
		}
		app.Session.SetTables(tables)
		app.Logger.Debug("Data loaded",
			zap.Int("clients", len(tables.Clients)),
			zap.Int("workers", len(tables.Workers)),
			zap.Int("tasks", len(tables.Tasks)))
	}

	return nil
}

// newAssistant picks the collaborator backend. The heuristic backend has no
// primary, so every call is answered locally.
func newAssistant(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*collaborator.Assistant, error) {
	if cfg.Collaborator.Backend != config.BackendGenAI {
		logger.Info("Using local heuristic collaborator")
		return collaborator.NewAssistant(nil, cfg.Collaborator.Timeout, logger), nil
	}

	apiKey := os.Getenv(cfg.Collaborator.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set", cfg.Collaborator.APIKeyEnv)
	}

	logger.Info("Initializing GenAI collaborator", zap.String("model", cfg.Collaborator.Model))
	genAI, err := collaborator.NewGenAI(ctx, apiKey, cfg.Collaborator.Model)
	if err != nil {
		return nil, err
	}
	return collaborator.NewAssistant(genAI, cfg.Collaborator.Timeout, logger), nil
}

// sheetsConnector defers OAuth until the first command that reads sheets,
// then reuses the client for the rest of the session
func sheetsConnector() func() (sheetsclient.ValueGetter, error) {
	var client *sheetsclient.Client

	return func() (sheetsclient.ValueGetter, error) {
		if client != nil {
			return client, nil
		}

		app.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := config.LoadOAuthClientWithEnv(env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		app.Logger.Info("Initializing sheets client")
		c, err := sheetsclient.NewClient(app.Ctx, oauthCfg, env, app.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}
		app.Logger.Debug("Sheets client initialized successfully")

		client = c
		return client, nil
	}
}
