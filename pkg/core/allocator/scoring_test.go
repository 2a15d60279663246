package allocator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/data-curator/pkg/core/model"
)

func uniformWeights(value float64) Weights {
	return Weights{
		PriorityLevel:            value,
		RequestedTaskFulfillment: value,
		Fairness:                 value,
		Cost:                     value,
		Workload:                 value,
	}
}

func twoWorkerTables() model.Tables {
	return model.Tables{
		Clients: model.Table{
			{"ClientID": "C1", "ClientName": "Acme", "PriorityLevel": float64(5), "RequestedTaskIDs": "T1"},
		},
		Workers: model.Table{
			{"WorkerID": "W1", "WorkerName": "Alice", "Skills": "python", "AvailableSlots": "[1,2,3]", "QualificationLevel": float64(1)},
			{"WorkerID": "W2", "WorkerName": "Bob", "Skills": "python", "AvailableSlots": "[1,2,3]", "QualificationLevel": float64(1)},
		},
		Tasks: model.Table{
			{"TaskID": "T1", "TaskName": "ETL", "RequiredSkills": "python", "Duration": float64(2)},
		},
	}
}

func TestScore_TwoQualifiedWorkers(t *testing.T) {
	candidates := Score(twoWorkerTables(), uniformWeights(5))

	require.Len(t, candidates, 2)

	// priority 5*0.05 = 0.25
	// fairness 1/(0+1)*0.05 = 0.05 (each worker appears once)
	// workload 3/10*0.05 = 0.015
	// cost 1/1*0.05 = 0.05
	for i, workerID := range []string{"W1", "W2"} {
		c := candidates[i]
		assert.Equal(t, "C1", c.ClientID)
		assert.Equal(t, "T1", c.TaskID)
		assert.Equal(t, workerID, c.WorkerID)
		assert.InDelta(t, 0.365, c.Score, 1e-9)

		require.Len(t, c.Breakdown, 4)
		assert.InDelta(t, 0.25, c.Breakdown[0].Value, 1e-9)
		assert.InDelta(t, 0.05, c.Breakdown[1].Value, 1e-9)
		assert.InDelta(t, 0.015, c.Breakdown[2].Value, 1e-9)
		assert.InDelta(t, 0.05, c.Breakdown[3].Value, 1e-9)
	}
	assert.Equal(t, "Alice", candidates[0].WorkerName)
	assert.Equal(t, "ETL", candidates[0].TaskName)
}

func TestScore_ReasonListsTermsInOrder(t *testing.T) {
	candidates := Score(twoWorkerTables(), uniformWeights(100))

	require.NotEmpty(t, candidates)
	assert.Equal(t, "Priority: 5.00, Fairness: 1.00, Workload: 0.30, Cost: 1.00", candidates[0].Reason)
}

func TestScore_RequestedTaskFulfillmentDoesNotAffectScore(t *testing.T) {
	weights := uniformWeights(5)
	base := Score(twoWorkerTables(), weights)

	weights.RequestedTaskFulfillment = 100
	changed := Score(twoWorkerTables(), weights)

	require.Len(t, changed, len(base))
	for i := range base {
		assert.Equal(t, base[i].Score, changed[i].Score)
	}
}

func TestScore_FairnessDependsOnEnumerationOrder(t *testing.T) {
	tables := twoWorkerTables()
	tables.Workers = tables.Workers[:1]
	tables.Clients = append(tables.Clients, model.Row{
		"ClientID": "C2", "ClientName": "Globex", "PriorityLevel": float64(5), "RequestedTaskIDs": "T1",
	})

	candidates := Score(tables, Weights{Fairness: 100})

	require.Len(t, candidates, 2)
	assert.Equal(t, "C1", candidates[0].ClientID)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-9)
	assert.Equal(t, "C2", candidates[1].ClientID)
	assert.InDelta(t, 0.5, candidates[1].Score, 1e-9)
}

func TestScore_OnlyQualifiedWorkers(t *testing.T) {
	tables := twoWorkerTables()
	tables.Tasks[0]["RequiredSkills"] = "python, sql"
	tables.Workers[1]["Skills"] = "sql,python,excel"

	candidates := Score(tables, uniformWeights(5))

	require.Len(t, candidates, 1)
	assert.Equal(t, "W2", candidates[0].WorkerID)
}

func TestScore_SortsDescendingAndKeepsTiesStable(t *testing.T) {
	tables := twoWorkerTables()
	tables.Clients = model.Table{
		{"ClientID": "C1", "PriorityLevel": float64(1), "RequestedTaskIDs": "T1"},
		{"ClientID": "C2", "PriorityLevel": float64(4), "RequestedTaskIDs": "T1"},
	}

	candidates := Score(tables, Weights{PriorityLevel: 100})

	require.Len(t, candidates, 4)
	var order []string
	for _, c := range candidates {
		order = append(order, c.ClientID+"/"+c.WorkerID)
	}
	assert.Equal(t, []string{"C2/W1", "C2/W2", "C1/W1", "C1/W2"}, order)
}

func TestScore_CapsAtMaxCandidates(t *testing.T) {
	tables := twoWorkerTables()
	tables.Clients = nil
	for i := 1; i <= 15; i++ {
		tables.Clients = append(tables.Clients, model.Row{
			"ClientID": fmt.Sprintf("C%d", i), "PriorityLevel": float64(3), "RequestedTaskIDs": "T1",
		})
	}

	candidates := Score(tables, uniformWeights(10))

	assert.Len(t, candidates, MaxCandidates)
}

func TestScore_InvalidSlotsContributeZeroWorkload(t *testing.T) {
	tables := twoWorkerTables()
	tables.Workers[0]["AvailableSlots"] = "not json"

	candidates := Score(tables, uniformWeights(5))

	require.Len(t, candidates, 2)
	// W2 keeps its workload term so ranks first
	assert.Equal(t, "W2", candidates[0].WorkerID)
	broken := candidates[1]
	assert.Equal(t, 0.0, broken.Breakdown[2].Value)
	assert.Equal(t, "invalid slots", broken.Breakdown[2].Note)
	assert.Contains(t, broken.Reason, "Workload: 0.00 (invalid slots)")
}

func TestScore_InvalidQualificationContributesZeroCost(t *testing.T) {
	tables := twoWorkerTables()
	tables.Workers[1]["QualificationLevel"] = float64(0)

	candidates := Score(tables, Weights{Cost: 100})

	require.Len(t, candidates, 2)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-9)
	assert.Equal(t, 0.0, candidates[1].Score)
	assert.Equal(t, "invalid qualification", candidates[1].Breakdown[3].Note)
}

func TestScore_DropsUnresolvableReferences(t *testing.T) {
	tables := twoWorkerTables()
	tables.Clients[0]["RequestedTaskIDs"] = "T9, T1"
	tables.Clients = append(tables.Clients, model.Row{"ClientName": "No ID", "RequestedTaskIDs": "T1"})
	tables.Workers = append(tables.Workers, model.Row{"WorkerName": "No ID", "Skills": "python"})

	candidates := Score(tables, uniformWeights(5))

	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.Equal(t, "C1", c.ClientID)
		assert.Equal(t, "T1", c.TaskID)
	}
}

func TestScore_EmptyAndMalformedTables(t *testing.T) {
	assert.Empty(t, Score(model.Tables{}, DefaultWeights()))

	assert.NotPanics(t, func() {
		Score(model.Tables{
			Clients: model.Table{nil, {"ClientID": []any{"x"}, "RequestedTaskIDs": float64(1)}},
			Workers: model.Table{nil, {"WorkerID": "W1", "Skills": nil, "QualificationLevel": "x"}},
			Tasks:   model.Table{nil, {"TaskID": "T1"}},
		}, DefaultWeights())
	})
}

func TestScore_DoesNotMutateTables(t *testing.T) {
	tables := twoWorkerTables()
	before := fmt.Sprintf("%v", tables)

	Score(tables, uniformWeights(50))

	assert.Equal(t, before, fmt.Sprintf("%v", tables))
}
