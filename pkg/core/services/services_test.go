package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/internal/config"
	"github.com/jakechorley/data-curator/pkg/clients/sheetsclient"
	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/allocator"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/phases"
	"github.com/jakechorley/data-curator/pkg/core/rules"
	"github.com/jakechorley/data-curator/pkg/core/validation"
)

// cleanTables has no validation issues.
// Phase loads: 1 = 1/2, 2 = 3/3, 3 = 2/3 (demand/capacity).
func cleanTables() model.Tables {
	return model.Tables{
		Clients: model.Table{
			{"ClientID": "C1", "ClientName": "Acme Corp", "PriorityLevel": float64(3), "RequestedTaskIDs": "T1,T2", "GroupTag": "GroupA", "AttributesJSON": `{"location":"NY"}`},
			{"ClientID": "C2", "ClientName": "Globex", "PriorityLevel": "5", "RequestedTaskIDs": "T2", "GroupTag": "GroupB", "AttributesJSON": ""},
		},
		Workers: model.Table{
			{"WorkerID": "W1", "WorkerName": "Alice", "Skills": "python,sql", "AvailableSlots": "[1,2,3]", "MaxLoadPerPhase": float64(2), "WorkerGroup": "GroupA", "QualificationLevel": float64(2)},
			{"WorkerID": "W2", "WorkerName": "Bob", "Skills": "python", "AvailableSlots": "[2,3]", "MaxLoadPerPhase": "1", "WorkerGroup": "GroupB", "QualificationLevel": float64(1)},
		},
		Tasks: model.Table{
			{"TaskID": "T1", "TaskName": "ETL", "Category": "Data", "Duration": float64(1), "RequiredSkills": "python,sql", "PreferredPhases": "1-2", "MaxConcurrent": float64(1)},
			{"TaskID": "T2", "TaskName": "Report", "Category": "Analytics", "Duration": float64(2), "RequiredSkills": "python", "PreferredPhases": "[2,3]", "MaxConcurrent": float64(2)},
		},
	}
}

func TestValidateTables_Clean(t *testing.T) {
	result := ValidateTables(cleanTables(), zap.NewNop())

	assert.True(t, result.Clean())
	assert.Empty(t, result.Issues)
	assert.Equal(t, validation.Summary{}, result.Summary)
	assert.Len(t, result.PerEntity, 3)
}

func TestValidateTables_CountsPerEntity(t *testing.T) {
	tables := cleanTables()
	tables.Clients[1] = model.Row{
		"ClientID": "C2", "ClientName": "Globex", "PriorityLevel": float64(9),
		"RequestedTaskIDs": "T2", "GroupTag": "GroupZ", "AttributesJSON": "",
	}

	result := ValidateTables(tables, zap.NewNop())

	assert.False(t, result.Clean())
	assert.Equal(t, validation.Summary{Errors: 1, Warnings: 1}, result.Summary)
	assert.Equal(t, validation.Summary{Errors: 1, Warnings: 1}, result.PerEntity[model.EntityClients])
	assert.Equal(t, validation.Summary{}, result.PerEntity[model.EntityWorkers])
	assert.Equal(t, validation.Summary{}, result.PerEntity[model.EntityTasks])
}

func TestPreviewAllocation(t *testing.T) {
	store := rules.NewStore(allocator.DefaultWeights()).AddRule(rules.FreeForm("keep GroupA together"))

	preview := PreviewAllocation(cleanTables(), store, zap.NewNop())

	// C1/T1 has one qualified worker, C1/T2 and C2/T2 have two each
	assert.Len(t, preview.Candidates, 5)
	assert.Equal(t, allocator.DefaultWeights(), preview.Weights)
	assert.Equal(t, 1, preview.RuleCount)
	assert.Equal(t, validation.Summary{}, preview.Validation)

	for i := 1; i < len(preview.Candidates); i++ {
		assert.GreaterOrEqual(t, preview.Candidates[i-1].Score, preview.Candidates[i].Score)
	}
}

func TestPreviewAllocation_UsesStoreWeights(t *testing.T) {
	store, err := rules.NewStore(allocator.DefaultWeights()).SetWeight(allocator.KeyPriorityLevel, 0)
	require.NoError(t, err)

	preview := PreviewAllocation(cleanTables(), store, zap.NewNop())

	assert.Zero(t, preview.Weights.PriorityLevel)
	for _, c := range preview.Candidates {
		assert.Zero(t, c.Breakdown[0].Value)
	}
}

func TestPreviewAllocation_EmptyTables(t *testing.T) {
	preview := PreviewAllocation(model.Tables{}, rules.NewStore(allocator.DefaultWeights()), zap.NewNop())

	assert.NotNil(t, preview.Candidates)
	assert.Empty(t, preview.Candidates)
}

func TestPhaseReport(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) // a Monday
	calendar, err := phases.NewCalendar("FREQ=WEEKLY;BYDAY=MO", start)
	require.NoError(t, err)

	report, err := PhaseReport(cleanTables(), calendar, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, report, 3)
	assert.Equal(t, phases.Load{Phase: 1, Demand: 1, Capacity: 2}, report[0].Load)
	assert.Equal(t, phases.Load{Phase: 2, Demand: 3, Capacity: 3}, report[1].Load)
	assert.Equal(t, phases.Load{Phase: 3, Demand: 2, Capacity: 3}, report[2].Load)
	for _, entry := range report {
		assert.False(t, entry.Saturated)
	}

	require.NotNil(t, report[2].Date)
	assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), *report[2].Date)
}

func TestPhaseReport_WithoutCalendar(t *testing.T) {
	tables := cleanTables()
	tables.Tasks[1]["Duration"] = float64(8)

	report, err := PhaseReport(tables, nil, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, report, 3)
	assert.Nil(t, report[0].Date)
	assert.True(t, report[1].Saturated)
	assert.True(t, report[2].Saturated)
}

func TestPhaseReport_CalendarTooShort(t *testing.T) {
	calendar, err := phases.NewCalendar("FREQ=WEEKLY;COUNT=2", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = PhaseReport(cleanTables(), calendar, zap.NewNop())

	require.Error(t, err)
	assert.ErrorIs(t, err, phases.ErrPhaseOutOfRange)
}

// failingMapper fails every header mapping and answers everything else locally
type failingMapper struct {
	*collaborator.Heuristic
}

func (f failingMapper) MapHeaders(ctx context.Context, headers []string, kind model.EntityKind) ([]string, error) {
	return nil, errors.New("model offline")
}

func TestIngestGrids(t *testing.T) {
	grids := sheetsclient.Grids{
		model.EntityClients: {
			{"Client ID", "client name", "Notes"},
			{"C1", "Acme", "vip"},
			{"", "", ""},
		},
		model.EntityTasks: {
			{"task_id", "Task Name"},
			{"T1", "ETL"},
		},
	}
	assistant := collaborator.NewAssistant(nil, 0, zap.NewNop())

	result, err := IngestGrids(context.Background(), grids, assistant, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, model.Table{{"ClientID": "C1", "ClientName": "Acme", "Notes": "vip"}}, result.Tables.Clients)
	assert.Equal(t, model.Table{{"TaskID": "T1", "TaskName": "ETL"}}, result.Tables.Tasks)
	assert.NotNil(t, result.Tables.Workers)
	assert.Empty(t, result.Tables.Workers)

	mapping := result.Mappings[model.EntityClients]
	assert.Equal(t, []string{"Client ID", "client name", "Notes"}, mapping.Original)
	assert.Equal(t, []string{"ClientID", "ClientName", "Notes"}, mapping.Mapped)
	assert.False(t, mapping.FellBack)
	assert.NotContains(t, result.Mappings, model.EntityWorkers)
}

func TestIngestGrids_FallbackIsReported(t *testing.T) {
	grids := sheetsclient.Grids{
		model.EntityWorkers: {{"Worker ID"}, {"W1"}},
	}
	assistant := collaborator.NewAssistant(failingMapper{collaborator.NewHeuristic()}, time.Second, zap.NewNop())

	result, err := IngestGrids(context.Background(), grids, assistant, zap.NewNop())
	require.NoError(t, err)

	mapping := result.Mappings[model.EntityWorkers]
	assert.True(t, mapping.FellBack)
	assert.Contains(t, mapping.Warning, "model offline")
	assert.Equal(t, model.Table{{"WorkerID": "W1"}}, result.Tables.Workers)
}

func TestIngestGrids_EmptyGrid(t *testing.T) {
	grids := sheetsclient.Grids{model.EntityTasks: {}}
	assistant := collaborator.NewAssistant(nil, 0, zap.NewNop())

	_, err := IngestGrids(context.Background(), grids, assistant, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read tasks headers")
}

type mockGetter struct {
	ranges map[string][][]interface{}
	err    error
}

func (m *mockGetter) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ranges[sheetRange], nil
}

func TestIngestSheets(t *testing.T) {
	cfg := &config.SheetsConfig{SpreadsheetID: "s1", ClientsTab: "Clients", WorkersTab: "Workers", TasksTab: "Tasks"}
	getter := &mockGetter{ranges: map[string][][]interface{}{
		"Clients": {{"ClientID"}, {"C1"}},
		"Workers": {{"WorkerID"}, {"W1"}, {"W2"}},
		"Tasks":   {{"TaskID"}},
	}}
	assistant := collaborator.NewAssistant(nil, 0, zap.NewNop())

	result, err := IngestSheets(context.Background(), getter, cfg, assistant, zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, result.Tables.Clients, 1)
	assert.Len(t, result.Tables.Workers, 2)
	assert.Empty(t, result.Tables.Tasks)

	getter.err = errors.New("403 forbidden")
	_, err = IngestSheets(context.Background(), getter, cfg, assistant, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch sheets")
}

func TestSession(t *testing.T) {
	session := NewSession(allocator.DefaultWeights())

	assert.NotNil(t, session.Tables().Clients)
	assert.Empty(t, session.Store().ListRules())

	session.SetTable(model.EntityWorkers, model.Table{{"WorkerID": "W1"}})
	assert.Len(t, session.Tables().Workers, 1)

	session.SetTables(cleanTables())
	assert.Len(t, session.Tables().Clients, 2)

	store, err := session.UpdateStore(func(s rules.Store) (rules.Store, error) {
		return s.RemoveRule(0)
	})
	assert.ErrorIs(t, err, rules.ErrIndexOutOfRange)
	assert.Empty(t, store.ListRules())
}

func TestSession_ConcurrentUpdates(t *testing.T) {
	session := NewSession(allocator.DefaultWeights())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = session.UpdateStore(func(s rules.Store) (rules.Store, error) {
				return s.AddRule(rules.FreeForm("rule")), nil
			})
			_ = session.Tables()
		}()
	}
	wg.Wait()

	assert.Len(t, session.Store().ListRules(), 20)
}
