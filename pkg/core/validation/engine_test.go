package validation

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/data-curator/pkg/core/model"
)

func TestValidate_ValidTablesHaveNoIssues(t *testing.T) {
	issues := Validate(validTables())
	assert.Empty(t, issues)
}

func TestValidate_EmptyTables(t *testing.T) {
	assert.Empty(t, Validate(model.Tables{}))
}

func TestValidate_NeverPanics(t *testing.T) {
	tests := []struct {
		name   string
		tables model.Tables
	}{
		{"nil tables", model.Tables{}},
		{"empty rows", model.Tables{
			Clients: model.Table{{}},
			Workers: model.Table{{}},
			Tasks:   model.Table{{}},
		}},
		{"nil rows", model.Tables{
			Clients: model.Table{nil},
			Workers: model.Table{nil, nil},
			Tasks:   model.Table{nil},
		}},
		{"odd value types", model.Tables{
			Clients: model.Table{{
				"ClientID":         map[string]any{"nested": true},
				"ClientName":       float64(42),
				"PriorityLevel":    []any{"x"},
				"RequestedTaskIDs": true,
				"GroupTag":         nil,
				"AttributesJSON":   map[string]any{"already": "decoded"},
			}},
			Workers: model.Table{{
				"WorkerID":           float64(1),
				"Skills":             []any{"python", float64(3)},
				"AvailableSlots":     []any{float64(1), "two"},
				"MaxLoadPerPhase":    "lots",
				"QualificationLevel": -1.5,
			}},
			Tasks: model.Table{{
				"TaskID":          "",
				"Duration":        "1e400",
				"RequiredSkills":  ",,,",
				"PreferredPhases": "1-99999999999999999999",
				"MaxConcurrent":   float64(1e12),
			}},
		}},
		{"malformed strings", model.Tables{
			Clients: model.Table{{"ClientID": "C1", "AttributesJSON": "{", "RequestedTaskIDs": ",T1,,"}},
			Workers: model.Table{{"WorkerID": "W1", "AvailableSlots": "[[1]]", "MaxLoadPerPhase": "-3"}},
			Tasks:   model.Table{{"TaskID": "T1", "PreferredPhases": "[", "Duration": "NaN"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				Validate(tt.tables)
			})
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	tables := validTables()
	tables.Clients[0]["PriorityLevel"] = float64(9)
	tables.Workers[1]["AvailableSlots"] = "oops"
	tables.Tasks[0]["RequiredSkills"] = "welding"
	tables.Clients = append(tables.Clients, tables.Clients[0])

	first := Validate(tables)
	second := Validate(tables)
	require.NotEmpty(t, first)

	sortIssues := cmpopts.SortSlices(func(a, b model.ValidationIssue) bool {
		return issueKey(a) < issueKey(b)
	})
	assert.Empty(t, cmp.Diff(first, second, sortIssues))
}

func TestValidate_DoesNotMutateTables(t *testing.T) {
	tables := validTables()
	tables.Workers[0]["AvailableSlots"] = "[1,-2]"
	before := fmt.Sprintf("%v", tables)

	Validate(tables)

	assert.Equal(t, before, fmt.Sprintf("%v", tables))
}

// panickingCheck simulates a check with a bug
type panickingCheck struct{}

func (c *panickingCheck) Name() string { return "Broken" }
func (c *panickingCheck) Entity() model.EntityKind { return model.EntityWorkers }
func (c *panickingCheck) Run(tables model.Tables) []model.ValidationIssue {
	var row model.Row
	row["boom"] = 1 // assignment to nil map
	return nil
}

func TestValidateWith_IsolatesPanickingCheck(t *testing.T) {
	tables := validTables()
	tables.Clients[0]["ClientName"] = "  "

	issues := ValidateWith(tables, []Check{&panickingCheck{}, &ClientNameCheck{}})

	require.Len(t, issues, 2, "A failing check must not prevent later checks from running")
	assert.Equal(t, model.EntityWorkers, issues[0].Entity)
	assert.True(t, issues[0].IsTableLevel())
	assert.Contains(t, issues[0].Message, "Broken")
	assert.Equal(t, model.ColClientName, issues[1].Column)
}

func TestSummarizeAndFilter(t *testing.T) {
	tables := validTables()
	tables.Clients[0]["GroupTag"] = "GroupZ"
	tables.Clients[1]["ClientName"] = ""
	tables.Workers[0]["WorkerID"] = "W-1"

	issues := Validate(tables)

	summary := Summarize(issues)
	assert.Equal(t, 2, summary.Errors)
	assert.Equal(t, 1, summary.Warnings)

	assert.Len(t, Filter(issues, model.EntityClients), 2)
	assert.Len(t, Filter(issues, model.EntityWorkers), 1)
	assert.Empty(t, Filter(issues, model.EntityTasks))
}

func TestDefaultChecks_OrderAndCoverage(t *testing.T) {
	checks := DefaultChecks()

	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.Name()
	}

	assert.Equal(t, []string{
		"RequiredColumns", "RequiredColumns", "RequiredColumns",
		"DuplicateID", "DuplicateID", "DuplicateID",
		"IDFormat", "IDFormat", "IDFormat",
		"AvailableSlots",
		"IntRange:PriorityLevel", "IntRange:Duration", "IntRange:MaxLoadPerPhase",
		"AttributesJSON", "ClientName", "PreferredPhases", "GroupTag",
		"RequestedTaskExists", "RequestedTaskFormat", "SkillCoverage",
		"MaxConcurrency", "OverloadedWorker", "PhaseSaturation",
	}, names)
}
