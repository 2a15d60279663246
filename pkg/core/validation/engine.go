package validation

import (
	"fmt"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

// Check is a single independent validation rule over the three tables.
//
// Run must not mutate the tables and must report issues in table row order.
// Entity names the table the check primarily reports on; it is used to
// attribute a check that fails unexpectedly.
type Check interface {
	Name() string
	Entity() model.EntityKind
	Run(tables model.Tables) []model.ValidationIssue
}

// DefaultChecks returns the full battery in execution order
func DefaultChecks() []Check {
	checks := make([]Check, 0, 24)

	// Structural
	for _, kind := range model.EntityKinds {
		checks = append(checks, &RequiredColumnsCheck{kind: kind})
	}
	for _, kind := range model.EntityKinds {
		checks = append(checks, &DuplicateIDCheck{kind: kind})
	}
	for _, kind := range model.EntityKinds {
		checks = append(checks, &IDFormatCheck{kind: kind})
	}
	checks = append(checks,
		&AvailableSlotsCheck{},
		NewIntRangeCheck(model.EntityClients, model.ColPriorityLevel, 1, 5),
		NewIntRangeCheck(model.EntityTasks, model.ColDuration, 1, 0),
		NewIntRangeCheck(model.EntityWorkers, model.ColMaxLoadPerPhase, 1, 0),
		&AttributesJSONCheck{},
		&ClientNameCheck{},
		&PreferredPhasesCheck{},
		&GroupTagCheck{},
	)

	// Cross-table
	checks = append(checks,
		&RequestedTaskExistsCheck{},
		&RequestedTaskFormatCheck{},
		&SkillCoverageCheck{},
		&MaxConcurrencyCheck{},
		&OverloadedWorkerCheck{},
		&PhaseSaturationCheck{},
	)

	return checks
}

// Validate runs the default battery. It is deterministic and total: every
// check runs regardless of what earlier checks found.
func Validate(tables model.Tables) []model.ValidationIssue {
	return ValidateWith(tables, DefaultChecks())
}

// ValidateWith runs the given checks in order and concatenates their issues
func ValidateWith(tables model.Tables, checks []Check) []model.ValidationIssue {
	issues := make([]model.ValidationIssue, 0)

	for _, check := range checks {
		issues = append(issues, runCheck(check, tables)...)
	}

	return issues
}

// runCheck isolates a check so an unexpected panic becomes a single issue
// instead of aborting the whole batch
func runCheck(check Check, tables model.Tables) (issues []model.ValidationIssue) {
	defer func() {
		if r := recover(); r != nil {
			issues = []model.ValidationIssue{{
				Entity:   check.Entity(),
				Message:  fmt.Sprintf(msgCheckFailed, check.Name(), r),
				Severity: model.SeverityError,
			}}
		}
	}()

	return check.Run(tables)
}

// Summary counts issues by severity
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Summarize counts errors and warnings in issues
func Summarize(issues []model.ValidationIssue) Summary {
	var s Summary
	for _, issue := range issues {
		switch issue.Severity {
		case model.SeverityError:
			s.Errors++
		case model.SeverityWarning:
			s.Warnings++
		}
	}
	return s
}

// Filter returns the issues reported against the given entity
func Filter(issues []model.ValidationIssue, kind model.EntityKind) []model.ValidationIssue {
	filtered := make([]model.ValidationIssue, 0)
	for _, issue := range issues {
		if issue.Entity == kind {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

// Row access helpers. Absent keys read as empty values.

func cellString(row model.Row, column string) string {
	return fields.CellString(row[column])
}

func rowIssue(kind model.EntityKind, rowIndex int, column, message string, severity model.Severity) model.ValidationIssue {
	return model.ValidationIssue{
		Entity:   kind,
		RowIndex: model.RowIndexPtr(rowIndex),
		Column:   column,
		Message:  message,
		Severity: severity,
	}
}

func tableIssue(kind model.EntityKind, column, message string, severity model.Severity) model.ValidationIssue {
	return model.ValidationIssue{
		Entity:   kind,
		Column:   column,
		Message:  message,
		Severity: severity,
	}
}

// idSet collects the trimmed primary keys of a table
func idSet(table model.Table, kind model.EntityKind) map[string]bool {
	ids := make(map[string]bool, len(table))
	pk := schema.PrimaryKey(kind)
	for _, row := range table {
		if id := trimmed(cellString(row, pk)); id != "" {
			ids[id] = true
		}
	}
	return ids
}

// workerSkillSets parses every worker's Skills column once, in worker order
func workerSkillSets(workers model.Table) []map[string]bool {
	sets := make([]map[string]bool, len(workers))
	for i, worker := range workers {
		sets[i] = fields.TagSet(cellString(worker, model.ColSkills))
	}
	return sets
}
