package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/data-curator/pkg/core/model"
)

func TestRequiredColumns_MissingColumnsAreTableLevel(t *testing.T) {
	tables := validTables()
	delete(tables.Clients[0], "GroupTag")
	delete(tables.Clients[0], "AttributesJSON")

	issues := (&RequiredColumnsCheck{kind: model.EntityClients}).Run(tables)

	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.True(t, issue.IsTableLevel())
		assert.Equal(t, model.SeverityError, issue.Severity)
	}
	assert.Equal(t, "GroupTag", issues[0].Column)
	assert.Equal(t, "Missing required column: AttributesJSON", issues[1].Message)
}

func TestRequiredColumns_OnlyFirstRowInspected(t *testing.T) {
	tables := validTables()
	delete(tables.Clients[1], "GroupTag")

	issues := Validate(tables)
	assert.Empty(t, tableLevel(issues, model.EntityClients))
}

func TestRequiredColumns_EmptyTableNotChecked(t *testing.T) {
	tables := validTables()
	tables.Tasks = model.Table{}

	issues := (&RequiredColumnsCheck{kind: model.EntityTasks}).Run(tables)
	assert.Empty(t, issues)
}

func TestDuplicateID_FirstOccurrenceExempt(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		tables := validTables()
		tables.Clients = nil
		for i := 0; i < n; i++ {
			tables.Clients = append(tables.Clients, model.Row{
				"ClientID":   "C7",
				"ClientName": "Same",
			})
		}

		issues := (&DuplicateIDCheck{kind: model.EntityClients}).Run(tables)

		assert.Len(t, issues, n-1, "N rows sharing an ID yield N-1 duplicate issues (n=%d)", n)
		for i, issue := range issues {
			require.NotNil(t, issue.RowIndex)
			assert.Equal(t, i+1, *issue.RowIndex)
			assert.Equal(t, "Duplicate ClientID: C7", issue.Message)
		}
	}
}

func TestDuplicateID_TrimsBeforeComparing(t *testing.T) {
	tables := validTables()
	tables.Workers[1]["WorkerID"] = " W1 "

	issues := Validate(tables)

	dupes := issuesAt(issues, model.EntityWorkers, 1, "WorkerID")
	require.Len(t, dupes, 1)
	assert.Contains(t, dupes[0].Message, "Duplicate")
}

func TestIDFormat(t *testing.T) {
	tests := []struct {
		kind  model.EntityKind
		id    any
		valid bool
	}{
		{model.EntityClients, "C12", true},
		{model.EntityClients, "c12", false},
		{model.EntityClients, "C", false},
		{model.EntityClients, "C1a", false},
		{model.EntityWorkers, "W003", true},
		{model.EntityWorkers, "T1", false},
		{model.EntityTasks, "T9", true},
		{model.EntityTasks, float64(9), false},
		{model.EntityTasks, "", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.kind, tt.id), func(t *testing.T) {
			tables := validTables()
			table := tables.Get(tt.kind)
			table[0][columnFor(tt.kind)] = tt.id

			issues := (&IDFormatCheck{kind: tt.kind}).Run(tables)

			if tt.valid {
				assert.Empty(t, issues)
			} else {
				require.Len(t, issues, 1)
				assert.Equal(t, 0, *issues[0].RowIndex)
			}
		})
	}
}

func columnFor(kind model.EntityKind) string {
	switch kind {
	case model.EntityClients:
		return "ClientID"
	case model.EntityWorkers:
		return "WorkerID"
	}
	return "TaskID"
}

func TestAvailableSlots_NonPositive(t *testing.T) {
	tables := validTables()
	tables.Workers[0]["AvailableSlots"] = "[1,2,-3]"

	issues := Validate(tables)

	workerErrors := issuesAt(issues, model.EntityWorkers, 0, "")
	require.Len(t, workerErrors, 1)
	assert.Equal(t, model.SeverityError, workerErrors[0].Severity)
	assert.Equal(t, "AvailableSlots", workerErrors[0].Column)
	assert.Contains(t, workerErrors[0].Message, "positive whole numbers")
}

func TestAvailableSlots_FractionalRejected(t *testing.T) {
	tables := validTables()
	tables.Workers[1]["AvailableSlots"] = "[2, 1.5]"

	workerErrors := issuesAt(Validate(tables), model.EntityWorkers, 1, "AvailableSlots")

	require.Len(t, workerErrors, 1)
	assert.Equal(t, model.SeverityError, workerErrors[0].Severity)
	assert.Contains(t, workerErrors[0].Message, "positive whole numbers")
}

func TestAvailableSlots_NotJSON(t *testing.T) {
	tables := validTables()
	tables.Workers[0]["AvailableSlots"] = "not json"

	issues := Validate(tables)

	workerErrors := issuesAt(issues, model.EntityWorkers, 0, "")
	require.Len(t, workerErrors, 1)
	assert.Contains(t, workerErrors[0].Message, "malformed")
	assert.Contains(t, workerErrors[0].Message, "JSON")
}

func TestAvailableSlots_NotArray(t *testing.T) {
	tables := validTables()
	tables.Workers[1]["AvailableSlots"] = `{"phase":1}`

	issues := (&AvailableSlotsCheck{}).Run(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, "AvailableSlots must be a JSON array", issues[0].Message)
	assert.Equal(t, 1, *issues[0].RowIndex)
}

func TestAvailableSlots_DecodedArrayAccepted(t *testing.T) {
	tables := validTables()
	tables.Workers[0]["AvailableSlots"] = []any{float64(1), float64(2), float64(3)}

	assert.Empty(t, Validate(tables))
}

func TestPriorityLevel_OutOfRange(t *testing.T) {
	tables := validTables()
	tables.Clients[0]["PriorityLevel"] = float64(6)

	issues := Validate(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, "PriorityLevel", issues[0].Column)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
	assert.Equal(t, `PriorityLevel must be an integer between 1 and 5 (got "6")`, issues[0].Message)
}

func TestIntRangeChecks(t *testing.T) {
	tests := []struct {
		name   string
		kind   model.EntityKind
		column string
		value  any
		valid  bool
	}{
		{"priority lower bound", model.EntityClients, "PriorityLevel", float64(1), true},
		{"priority zero", model.EntityClients, "PriorityLevel", float64(0), false},
		{"priority fraction", model.EntityClients, "PriorityLevel", 2.5, false},
		{"priority text", model.EntityClients, "PriorityLevel", "high", false},
		{"priority missing", model.EntityClients, "PriorityLevel", nil, false},
		{"duration large", model.EntityTasks, "Duration", float64(40), true},
		{"duration zero", model.EntityTasks, "Duration", "0", false},
		{"max load negative", model.EntityWorkers, "MaxLoadPerPhase", float64(-1), false},
		{"max load string", model.EntityWorkers, "MaxLoadPerPhase", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := validTables()
			tables.Get(tt.kind)[0][tt.column] = tt.value

			issues := issuesAt(Validate(tables), tt.kind, 0, tt.column)
			if tt.valid {
				assert.Empty(t, issues)
			} else {
				require.Len(t, issues, 1)
				assert.Equal(t, model.SeverityError, issues[0].Severity)
			}
		})
	}
}

func TestAttributesJSON(t *testing.T) {
	tables := validTables()
	tables.Clients[0]["AttributesJSON"] = `{"location": "NY"`
	tables.Clients[1]["AttributesJSON"] = map[string]any{"decoded": true}

	issues := (&AttributesJSONCheck{}).Run(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, 0, *issues[0].RowIndex)
	assert.Equal(t, "AttributesJSON is not valid JSON", issues[0].Message)
}

func TestClientName_BlankAfterTrim(t *testing.T) {
	tables := validTables()
	tables.Clients[1]["ClientName"] = " \t "

	issues := (&ClientNameCheck{}).Run(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, 1, *issues[0].RowIndex)
}

func TestPreferredPhases_Unparseable(t *testing.T) {
	tables := validTables()
	tables.Tasks[1]["PreferredPhases"] = "abc"

	issues := issuesAt(Validate(tables), model.EntityTasks, 1, "PreferredPhases")

	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
}

func TestPreferredPhases_WideRangeAccepted(t *testing.T) {
	tables := validTables()
	tables.Tasks[1]["PreferredPhases"] = "1-1001"

	assert.Empty(t, (&PreferredPhasesCheck{}).Run(tables))
	assert.Empty(t, issuesAt(Validate(tables), model.EntityTasks, 1, "PreferredPhases"))
}

func TestGroupTag_WarnsOutsideFixedSet(t *testing.T) {
	tables := validTables()
	tables.Clients[0]["GroupTag"] = "GroupZ"
	tables.Clients[1]["GroupTag"] = ""

	issues := (&GroupTagCheck{}).Run(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityWarning, issues[0].Severity)
	assert.Equal(t, `GroupTag "GroupZ" is not one of GroupA, GroupB, GroupC`, issues[0].Message)
}

func TestRequestedTasks_ExistenceAndFormatAreSeparate(t *testing.T) {
	tables := validTables()
	tables.Clients[0]["RequestedTaskIDs"] = "T1, T9, X5"

	issues := issuesAt(Validate(tables), model.EntityClients, 0, "RequestedTaskIDs")

	var missing, malformed []string
	for _, issue := range issues {
		assert.Equal(t, model.SeverityError, issue.Severity)
		switch issue.Message {
		case "Requested task T9 does not exist":
			missing = append(missing, "T9")
		case "Requested task X5 does not exist":
			missing = append(missing, "X5")
		case `Requested task ID "X5" has an invalid format (expected T followed by digits)`:
			malformed = append(malformed, "X5")
		}
	}

	assert.Len(t, issues, 3)
	assert.Equal(t, []string{"T9", "X5"}, missing)
	assert.Equal(t, []string{"X5"}, malformed)
}

func TestSkillCoverage_UncoveredSkill(t *testing.T) {
	tables := validTables()
	tables.Tasks[0]["RequiredSkills"] = "welding"

	issues := issuesAt(Validate(tables), model.EntityTasks, 0, "RequiredSkills")

	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "welding")
}

func TestSkillCoverage_ListsEveryUncoveredSkillOnce(t *testing.T) {
	tables := validTables()
	tables.Tasks[1]["RequiredSkills"] = "welding, python, plumbing, welding"

	issues := (&SkillCoverageCheck{}).Run(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, "No worker has the required skill(s): welding, plumbing", issues[0].Message)
}

func TestMaxConcurrency_WarnsAboveQualifiedCount(t *testing.T) {
	tables := validTables()
	tables.Tasks[0]["MaxConcurrent"] = float64(3) // only W1 has python and sql

	issues := (&MaxConcurrencyCheck{}).Run(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "MaxConcurrent (3) exceeds the number of qualified workers (1)", issues[0].Message)
}

func TestOverloadedWorker(t *testing.T) {
	tables := validTables()
	tables.Workers[1]["MaxLoadPerPhase"] = float64(3) // two slots

	issues := (&OverloadedWorkerCheck{}).Run(tables)

	require.Len(t, issues, 1)
	assert.Equal(t, 1, *issues[0].RowIndex)
	assert.Equal(t, model.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "MaxLoadPerPhase (3) exceeds the number of available slots (2)", issues[0].Message)
}

func TestOverloadedWorker_SkipsUnparseableSlots(t *testing.T) {
	tables := validTables()
	tables.Workers[0]["AvailableSlots"] = "nope"
	tables.Workers[0]["MaxLoadPerPhase"] = float64(10)

	assert.Empty(t, (&OverloadedWorkerCheck{}).Run(tables))
}

func TestPhaseSaturation(t *testing.T) {
	tables := validTables()
	tables.Tasks[1]["Duration"] = float64(5) // phase 2: 1+5 vs 3, phase 3: 5 vs 3

	issues := (&PhaseSaturationCheck{}).Run(tables)

	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.True(t, issue.IsTableLevel())
		assert.Equal(t, model.EntityTasks, issue.Entity)
		assert.Equal(t, model.SeverityWarning, issue.Severity)
	}
	assert.Equal(t, "Phase 2 is oversaturated: total task duration 6 exceeds worker capacity 3", issues[0].Message)
	assert.Equal(t, "Phase 3 is oversaturated: total task duration 5 exceeds worker capacity 3", issues[1].Message)
}

func TestPhaseSaturation_OnlyWorkerPhasesConsidered(t *testing.T) {
	tables := validTables()
	tables.Tasks[0]["PreferredPhases"] = "[7]" // no worker is available in phase 7
	tables.Tasks[0]["Duration"] = float64(100)

	assert.Empty(t, (&PhaseSaturationCheck{}).Run(tables))
}
