package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/internal/config"
	"github.com/jakechorley/data-curator/pkg/clients/sheetsclient"
	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/phases"
	"github.com/jakechorley/data-curator/pkg/core/services"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg       *config.Config
	Session   *services.Session
	Assistant *collaborator.Assistant
	Calendar  *phases.Calendar
	Logger    *zap.Logger
	Ctx       context.Context

	// ConnectSheets authenticates against Google Sheets on first use.
	// It is nil when no sheets source is configured.
	ConnectSheets func() (sheetsclient.ValueGetter, error)
}
