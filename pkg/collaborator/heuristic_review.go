package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

// Confidence of each local correction
const (
	confidenceIDFormat  = 0.9
	confidenceGroupCase = 0.8
	confidenceSlots     = 0.7
	confidenceClamp     = 0.6
	confidenceMinimum   = 0.5
)

var strictIDPatterns = map[model.EntityKind]*regexp.Regexp{
	model.EntityClients: regexp.MustCompile(`^C\d+$`),
	model.EntityWorkers: regexp.MustCompile(`^W\d+$`),
	model.EntityTasks:   regexp.MustCompile(`^T\d+$`),
}

// SuggestCorrections proposes fixes for values the validation engine would reject
// when the intended value is obvious: mistyped ID prefixes, out-of-range priorities,
// GroupTag case, and slots written as a list or range instead of a JSON array.
func (h *Heuristic) SuggestCorrections(_ context.Context, rows model.Table, kind model.EntityKind) ([]Correction, error) {
	corrections := make([]Correction, 0)
	for i, row := range rows {
		if c, ok := correctID(row, kind); ok {
			c.RowIndex = i
			corrections = append(corrections, c)
		}

		var found []Correction
		switch kind {
		case model.EntityClients:
			found = clientCorrections(row)
		case model.EntityWorkers:
			found = workerCorrections(row)
		case model.EntityTasks:
			found = taskCorrections(row)
		}
		for _, c := range found {
			c.RowIndex = i
			corrections = append(corrections, c)
		}
	}
	return corrections, nil
}

func correctID(row model.Row, kind model.EntityKind) (Correction, bool) {
	pk := schema.PrimaryKey(kind)
	pattern := strictIDPatterns[kind]
	if pattern == nil {
		return Correction{}, false
	}

	current := fields.CellString(row[pk])
	id := strings.TrimSpace(current)
	if id == "" || pattern.MatchString(id) {
		return Correction{}, false
	}

	prefix := schema.IDPrefix(kind)
	if !strings.HasPrefix(strings.ToUpper(id), prefix) {
		return Correction{}, false
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, id[1:])
	if digits == "" {
		return Correction{}, false
	}

	return Correction{
		Column:         pk,
		CurrentValue:   current,
		SuggestedValue: prefix + digits,
		Reason:         fmt.Sprintf("%s should be %s followed by digits", pk, prefix),
		Confidence:     confidenceIDFormat,
	}, true
}

func clientCorrections(row model.Row) []Correction {
	var out []Correction

	if priority, ok := fields.CellInt(row[model.ColPriorityLevel]); ok && (priority < 1 || priority > 5) {
		clamped := 1
		if priority > 5 {
			clamped = 5
		}
		out = append(out, Correction{
			Column:         model.ColPriorityLevel,
			CurrentValue:   fields.CellString(row[model.ColPriorityLevel]),
			SuggestedValue: strconv.Itoa(clamped),
			Reason:         "PriorityLevel must be between 1 and 5",
			Confidence:     confidenceClamp,
		})
	}

	tag := strings.TrimSpace(fields.CellString(row[model.ColGroupTag]))
	if tag != "" && !schema.IsValidGroupTag(tag) {
		for _, valid := range schema.ValidGroupTags {
			if strings.EqualFold(tag, valid) {
				out = append(out, Correction{
					Column:         model.ColGroupTag,
					CurrentValue:   fields.CellString(row[model.ColGroupTag]),
					SuggestedValue: valid,
					Reason:         "GroupTag values are case sensitive",
					Confidence:     confidenceGroupCase,
				})
				break
			}
		}
	}
	return out
}

func workerCorrections(row model.Row) []Correction {
	var out []Correction

	raw := fields.CellString(row[model.ColAvailableSlots])
	if _, err := fields.ParseSlotArray(raw); err != nil {
		if slots, ok := fields.ParsePhaseSet(raw); ok && slots.Len() <= maxListedPhases {
			encoded, _ := json.Marshal(slots.Phases())
			out = append(out, Correction{
				Column:         model.ColAvailableSlots,
				CurrentValue:   raw,
				SuggestedValue: string(encoded),
				Reason:         "AvailableSlots must be a JSON array of phase numbers",
				Confidence:     confidenceSlots,
			})
		}
	}

	out = append(out, raiseToOne(row, model.ColMaxLoadPerPhase)...)
	return out
}

func taskCorrections(row model.Row) []Correction {
	return raiseToOne(row, model.ColDuration)
}

// raiseToOne suggests 1 for a whole-number column holding zero or a negative value
func raiseToOne(row model.Row, column string) []Correction {
	value, ok := fields.CellInt(row[column])
	if !ok || value >= 1 {
		return nil
	}
	return []Correction{{
		Column:         column,
		CurrentValue:   fields.CellString(row[column]),
		SuggestedValue: "1",
		Reason:         fmt.Sprintf("%s must be at least 1", column),
		Confidence:     confidenceMinimum,
	}}
}

// nameColumns holds the display-name column of each entity
var nameColumns = map[model.EntityKind]string{
	model.EntityClients: model.ColClientName,
	model.EntityWorkers: model.ColWorkerName,
	model.EntityTasks:   model.ColTaskName,
}

// skillColumns holds the skill-tag column of the entities that have one
var skillColumns = map[model.EntityKind]string{
	model.EntityWorkers: model.ColSkills,
	model.EntityTasks:   model.ColRequiredSkills,
}

// ValidateWithExternalModel flags repeated display names and skill tags that differ only by case.
// Skill matching elsewhere is exact, so "Python" and "python" never match each other.
func (h *Heuristic) ValidateWithExternalModel(_ context.Context, rows model.Table, kind model.EntityKind) ([]ExternalIssue, error) {
	issues := make([]ExternalIssue, 0)
	issues = append(issues, repeatedNames(rows, nameColumns[kind])...)
	if column, ok := skillColumns[kind]; ok {
		issues = append(issues, inconsistentSkillCase(rows, column)...)
	}
	return issues, nil
}

func repeatedNames(rows model.Table, column string) []ExternalIssue {
	if column == "" {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		name := strings.TrimSpace(fields.CellString(row[column]))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if counts[key] == 0 {
			order = append(order, name)
		}
		counts[key]++
	}

	var issues []ExternalIssue
	for _, name := range order {
		if n := counts[strings.ToLower(name)]; n > 1 {
			issues = append(issues, ExternalIssue{
				Field:    column,
				Message:  fmt.Sprintf("%s %q appears on %d rows", column, name, n),
				Severity: model.SeverityWarning,
			})
		}
	}
	return issues
}

func inconsistentSkillCase(rows model.Table, column string) []ExternalIssue {
	firstSpelling := make(map[string]string)
	reported := make(map[string]bool)

	var issues []ExternalIssue
	for _, row := range rows {
		for _, skill := range fields.SplitTags(fields.CellString(row[column])) {
			key := strings.ToLower(skill)
			first, seen := firstSpelling[key]
			if !seen {
				firstSpelling[key] = skill
				continue
			}
			if first == skill || reported[skill] {
				continue
			}
			reported[skill] = true
			issues = append(issues, ExternalIssue{
				Field:    column,
				Message:  fmt.Sprintf("Skill %q also appears as %q; skills are matched exactly", skill, first),
				Severity: model.SeverityWarning,
			})
		}
	}
	return issues
}
