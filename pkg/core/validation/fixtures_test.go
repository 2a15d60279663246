package validation

import (
	"fmt"

	"github.com/jakechorley/data-curator/pkg/core/model"
)

// validTables returns a small data set that produces no issues at all.
//
// Phase totals: phase 1 demand 1 / capacity 2, phase 2 demand 3 / capacity 3,
// phase 3 demand 2 / capacity 3.
func validTables() model.Tables {
	return model.Tables{
		Clients: model.Table{
			{
				"ClientID":         "C1",
				"ClientName":       "Acme Corp",
				"PriorityLevel":    float64(3),
				"RequestedTaskIDs": "T1,T2",
				"GroupTag":         "GroupA",
				"AttributesJSON":   `{"location":"NY","budget":1000}`,
			},
			{
				"ClientID":         "C2",
				"ClientName":       "Globex",
				"PriorityLevel":    "5",
				"RequestedTaskIDs": "T2",
				"GroupTag":         "GroupB",
				"AttributesJSON":   "",
			},
		},
		Workers: model.Table{
			{
				"WorkerID":           "W1",
				"WorkerName":         "Alice",
				"Skills":             "python,sql",
				"AvailableSlots":     "[1,2,3]",
				"MaxLoadPerPhase":    float64(2),
				"WorkerGroup":        "GroupA",
				"QualificationLevel": float64(2),
			},
			{
				"WorkerID":           "W2",
				"WorkerName":         "Bob",
				"Skills":             "python",
				"AvailableSlots":     "[2,3]",
				"MaxLoadPerPhase":    "1",
				"WorkerGroup":        "GroupB",
				"QualificationLevel": float64(1),
			},
		},
		Tasks: model.Table{
			{
				"TaskID":          "T1",
				"TaskName":        "ETL",
				"Category":        "Data",
				"Duration":        float64(1),
				"RequiredSkills":  "python,sql",
				"PreferredPhases": "1-2",
				"MaxConcurrent":   float64(1),
			},
			{
				"TaskID":          "T2",
				"TaskName":        "Report",
				"Category":        "Analytics",
				"Duration":        float64(2),
				"RequiredSkills":  "python",
				"PreferredPhases": "[2,3]",
				"MaxConcurrent":   float64(2),
			},
		},
	}
}

// issuesAt returns the issues reported against a specific entity row and column.
// An empty column matches every column.
func issuesAt(issues []model.ValidationIssue, kind model.EntityKind, row int, column string) []model.ValidationIssue {
	var matched []model.ValidationIssue
	for _, issue := range issues {
		if issue.Entity != kind || issue.RowIndex == nil || *issue.RowIndex != row {
			continue
		}
		if column != "" && issue.Column != column {
			continue
		}
		matched = append(matched, issue)
	}
	return matched
}

func tableLevel(issues []model.ValidationIssue, kind model.EntityKind) []model.ValidationIssue {
	var matched []model.ValidationIssue
	for _, issue := range issues {
		if issue.Entity == kind && issue.IsTableLevel() {
			matched = append(matched, issue)
		}
	}
	return matched
}

// issueKey renders an issue with its row index dereferenced, for stable ordering
func issueKey(issue model.ValidationIssue) string {
	row := -1
	if issue.RowIndex != nil {
		row = *issue.RowIndex
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s", issue.Entity, row, issue.Column, issue.Severity, issue.Message)
}
