package collaborator

import (
	"context"
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

// Heuristic implements Collaborator with deterministic local rules.
// None of its methods return an error, so it is the fallback for every model-backed call.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

var _ Collaborator = (*Heuristic)(nil)

// headerAliases maps normalized header spellings that Lookup cannot resolve onto schema columns
var headerAliases = map[model.EntityKind]map[string]string{
	model.EntityClients: {
		"id":            model.ColClientID,
		"client":        model.ColClientID,
		"name":          model.ColClientName,
		"priority":      model.ColPriorityLevel,
		"tasks":         model.ColRequestedTaskIDs,
		"requestedtask": model.ColRequestedTaskIDs,
		"taskids":       model.ColRequestedTaskIDs,
		"group":         model.ColGroupTag,
		"tag":           model.ColGroupTag,
		"attributes":    model.ColAttributesJSON,
		"attrs":         model.ColAttributesJSON,
	},
	model.EntityWorkers: {
		"id":            model.ColWorkerID,
		"worker":        model.ColWorkerID,
		"name":          model.ColWorkerName,
		"skill":         model.ColSkills,
		"slots":         model.ColAvailableSlots,
		"availability":  model.ColAvailableSlots,
		"maxload":       model.ColMaxLoadPerPhase,
		"load":          model.ColMaxLoadPerPhase,
		"group":         model.ColWorkerGroup,
		"qualification": model.ColQualificationLevel,
		"level":         model.ColQualificationLevel,
	},
	model.EntityTasks: {
		"id":             model.ColTaskID,
		"task":           model.ColTaskID,
		"name":           model.ColTaskName,
		"type":           model.ColCategory,
		"length":         model.ColDuration,
		"skills":         model.ColRequiredSkills,
		"requiredskill":  model.ColRequiredSkills,
		"phases":         model.ColPreferredPhases,
		"preferredphase": model.ColPreferredPhases,
		"concurrency":    model.ColMaxConcurrent,
		"maxconcurrency": model.ColMaxConcurrent,
	},
}

// MapHeaders renames each header that matches a schema column, directly or through
// a known alias. Unmatched headers and second claims on a column are left as they are.
func (h *Heuristic) MapHeaders(_ context.Context, headers []string, kind model.EntityKind) ([]string, error) {
	mapped := make([]string, len(headers))
	claimed := make(map[string]bool)

	for i, header := range headers {
		mapped[i] = header

		col, ok := schema.Lookup(kind, header)
		if !ok {
			col, ok = headerAliases[kind][schema.Normalize(header)]
		}
		if !ok || claimed[col] {
			continue
		}
		mapped[i] = col
		claimed[col] = true
	}
	return mapped, nil
}

// QueryData keeps rows where any stringified value contains the query, ignoring case.
// A blank query matches every row.
func (h *Heuristic) QueryData(_ context.Context, query string, rows model.Table, _ model.EntityKind) (model.Table, error) {
	return substringMatch(query, rows), nil
}

func substringMatch(query string, rows model.Table) model.Table {
	needle := strings.ToLower(strings.TrimSpace(query))

	matched := make(model.Table, 0, len(rows))
	for _, row := range rows {
		if needle == "" || rowContains(row, needle) {
			matched = append(matched, row)
		}
	}
	return matched
}

func rowContains(row model.Row, needle string) bool {
	for _, value := range row {
		if strings.Contains(strings.ToLower(fields.CellString(value)), needle) {
			return true
		}
	}
	return false
}

// distinctValues returns the trimmed non-blank values of a column in order of first appearance
func distinctValues(table model.Table, column string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, row := range table {
		value := strings.TrimSpace(fields.CellString(row[column]))
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		values = append(values, value)
	}
	return values
}
