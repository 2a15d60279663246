package sheetsclient

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/data-curator/internal/config"
	"github.com/jakechorley/data-curator/pkg/core/model"
)

// ValueGetter reads a range of cells. *Client implements it.
type ValueGetter interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// Grids holds the raw header+values range of each entity tab
type Grids map[model.EntityKind][][]interface{}

// Tabs returns the configured tab name of each entity
func Tabs(cfg *config.SheetsConfig) map[model.EntityKind]string {
	return map[model.EntityKind]string{
		model.EntityClients: cfg.ClientsTab,
		model.EntityWorkers: cfg.WorkersTab,
		model.EntityTasks:   cfg.TasksTab,
	}
}

// FetchGrids reads the three entity tabs concurrently. The first failure
// cancels the remaining reads.
func FetchGrids(ctx context.Context, getter ValueGetter, cfg *config.SheetsConfig) (Grids, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	grids := make(Grids, len(model.EntityKinds))

	for kind, tab := range Tabs(cfg) {
		g.Go(func() error {
			values, err := getter.GetValues(gctx, cfg.SpreadsheetID, tab)
			if err != nil {
				return fmt.Errorf("failed to read %s tab %q: %w", kind, tab, err)
			}
			if len(values) == 0 {
				return fmt.Errorf("%s tab %q is empty", kind, tab)
			}

			mu.Lock()
			grids[kind] = values
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grids, nil
}
