package sheetsclient

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/data-curator/internal/config"
	"github.com/jakechorley/data-curator/pkg/core/model"
)

type mockGetter struct {
	mu     sync.Mutex
	ranges map[string][][]interface{}
	fail   map[string]error
	seen   []string
}

func (m *mockGetter) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	m.mu.Lock()
	m.seen = append(m.seen, spreadsheetID+"/"+sheetRange)
	m.mu.Unlock()

	if err, ok := m.fail[sheetRange]; ok {
		return nil, err
	}
	return m.ranges[sheetRange], nil
}

var testSheets = &config.SheetsConfig{
	SpreadsheetID: "sheet123",
	ClientsTab:    "Clients",
	WorkersTab:    "Workers",
	TasksTab:      "Tasks",
}

func TestFetchGrids(t *testing.T) {
	getter := &mockGetter{ranges: map[string][][]interface{}{
		"Clients": {{"ClientID"}, {"C1"}},
		"Workers": {{"WorkerID"}, {"W1"}},
		"Tasks":   {{"TaskID"}},
	}}

	grids, err := FetchGrids(context.Background(), getter, testSheets)

	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"ClientID"}, {"C1"}}, grids[model.EntityClients])
	assert.Equal(t, [][]interface{}{{"WorkerID"}, {"W1"}}, grids[model.EntityWorkers])
	assert.Equal(t, [][]interface{}{{"TaskID"}}, grids[model.EntityTasks])
	assert.ElementsMatch(t, []string{"sheet123/Clients", "sheet123/Workers", "sheet123/Tasks"}, getter.seen)
}

func TestFetchGrids_ReadFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	getter := &mockGetter{
		ranges: map[string][][]interface{}{"Clients": {{"ClientID"}}, "Tasks": {{"TaskID"}}},
		fail:   map[string]error{"Workers": boom},
	}

	_, err := FetchGrids(context.Background(), getter, testSheets)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `workers tab "Workers"`)
}

func TestFetchGrids_EmptyTab(t *testing.T) {
	getter := &mockGetter{ranges: map[string][][]interface{}{
		"Clients": {{"ClientID"}},
		"Workers": {{"WorkerID"}},
	}}

	_, err := FetchGrids(context.Background(), getter, testSheets)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `tasks tab "Tasks" is empty`)
}
