package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/internal/api"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for the browser tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverCfg := app.Cfg.Server
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				serverCfg.Address = addr
			}

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(serverCfg, app.Session, app.Assistant, app.Calendar, app.Logger)
			app.Logger.Info("Serving API", zap.String("addr", serverCfg.Address), zap.Strings("origins", serverCfg.AllowedOrigins))

			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address, overriding the configured one")

	return cmd
}
