package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/internal/config"
	"github.com/jakechorley/data-curator/pkg/clients/sheetsclient"
	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/ingest"
)

// HeaderMapping records how one table's headers were renamed during ingestion
type HeaderMapping struct {
	Original []string `json:"original"`
	Mapped   []string `json:"mapped"`
	FellBack bool     `json:"fellBack"`
	Warning  string   `json:"warning,omitempty"`
}

// IngestResult holds the ingested tables and the header mapping applied to each
type IngestResult struct {
	Tables   model.Tables                       `json:"tables"`
	Mappings map[model.EntityKind]HeaderMapping `json:"mappings"`
}

// IngestGrid converts one raw grid into a table, renaming its headers through the assistant
func IngestGrid(ctx context.Context, grid [][]interface{}, kind model.EntityKind, assistant *collaborator.Assistant, logger *zap.Logger) (model.Table, HeaderMapping, error) {
	headers, err := ingest.Headers(grid)
	if err != nil {
		return nil, HeaderMapping{}, fmt.Errorf("failed to read %s headers: %w", kind, err)
	}

	result := assistant.MapHeaders(ctx, headers, kind)
	mapping := HeaderMapping{Original: headers, Mapped: result.Value, FellBack: result.FellBack}
	if result.Err != nil {
		mapping.Warning = result.Err.Error()
	}

	logger.Debug("Mapped headers",
		zap.String("entity", string(kind)),
		zap.Strings("original", headers),
		zap.Strings("mapped", result.Value),
		zap.Bool("fell_back", result.FellBack))

	table, err := ingest.FromGrid(grid, result.Value)
	if err != nil {
		return nil, mapping, fmt.Errorf("failed to convert %s rows: %w", kind, err)
	}

	return table, mapping, nil
}

// IngestGrids converts the raw grid of every entity present in grids.
// Entities without a grid get an empty table.
func IngestGrids(ctx context.Context, grids sheetsclient.Grids, assistant *collaborator.Assistant, logger *zap.Logger) (*IngestResult, error) {
	result := &IngestResult{
		Tables: model.Tables{
			Clients: model.Table{},
			Workers: model.Table{},
			Tasks:   model.Table{},
		},
		Mappings: make(map[model.EntityKind]HeaderMapping, len(grids)),
	}

	for _, kind := range model.EntityKinds {
		grid, ok := grids[kind]
		if !ok {
			continue
		}

		table, mapping, err := IngestGrid(ctx, grid, kind, assistant, logger)
		if err != nil {
			return nil, err
		}
		if mapping.FellBack {
			logger.Warn("Header mapping used the local heuristic",
				zap.String("entity", string(kind)),
				zap.String("reason", mapping.Warning))
		}

		result.Tables = result.Tables.With(kind, table)
		result.Mappings[kind] = mapping
	}

	logger.Info("Ingested tables",
		zap.Int("clients", len(result.Tables.Clients)),
		zap.Int("workers", len(result.Tables.Workers)),
		zap.Int("tasks", len(result.Tables.Tasks)))

	return result, nil
}

// IngestSheets reads the three entity tabs and ingests them
func IngestSheets(ctx context.Context, getter sheetsclient.ValueGetter, cfg *config.SheetsConfig, assistant *collaborator.Assistant, logger *zap.Logger) (*IngestResult, error) {
	logger.Debug("Fetching entity tabs", zap.String("spreadsheet_id", cfg.SpreadsheetID))

	grids, err := sheetsclient.FetchGrids(ctx, getter, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheets: %w", err)
	}

	return IngestGrids(ctx, grids, assistant, logger)
}
