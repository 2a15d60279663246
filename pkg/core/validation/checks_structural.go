package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

var idPatterns = map[model.EntityKind]*regexp.Regexp{
	model.EntityClients: regexp.MustCompile(`^C\d+$`),
	model.EntityWorkers: regexp.MustCompile(`^W\d+$`),
	model.EntityTasks:   regexp.MustCompile(`^T\d+$`),
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// RequiredColumnsCheck reports every schema column absent from the first row.
// Empty tables are not checked.
type RequiredColumnsCheck struct {
	kind model.EntityKind
}

func (c *RequiredColumnsCheck) Name() string { return "RequiredColumns" }
func (c *RequiredColumnsCheck) Entity() model.EntityKind { return c.kind }

func (c *RequiredColumnsCheck) Run(tables model.Tables) []model.ValidationIssue {
	table := tables.Get(c.kind)
	if len(table) == 0 {
		return nil
	}

	present := make(map[string]bool, len(table[0]))
	for key := range table[0] {
		present[key] = true
	}

	var issues []model.ValidationIssue
	for _, col := range schema.MissingColumns(c.kind, present) {
		issues = append(issues, tableIssue(c.kind, col, fmt.Sprintf(msgMissingColumn, col), model.SeverityError))
	}
	return issues
}

// DuplicateIDCheck flags every repeat of a primary key after its first occurrence.
// Blank keys are left to IDFormatCheck.
type DuplicateIDCheck struct {
	kind model.EntityKind
}

func (c *DuplicateIDCheck) Name() string { return "DuplicateID" }
func (c *DuplicateIDCheck) Entity() model.EntityKind { return c.kind }

func (c *DuplicateIDCheck) Run(tables model.Tables) []model.ValidationIssue {
	pk := schema.PrimaryKey(c.kind)
	seen := make(map[string]bool)

	var issues []model.ValidationIssue
	for i, row := range tables.Get(c.kind) {
		id := trimmed(cellString(row, pk))
		if id == "" {
			continue
		}
		if seen[id] {
			issues = append(issues, rowIssue(c.kind, i, pk, fmt.Sprintf(msgDuplicateID, pk, id), model.SeverityError))
			continue
		}
		seen[id] = true
	}
	return issues
}

// IDFormatCheck requires primary keys to be the entity prefix followed by digits
type IDFormatCheck struct {
	kind model.EntityKind
}

func (c *IDFormatCheck) Name() string { return "IDFormat" }
func (c *IDFormatCheck) Entity() model.EntityKind { return c.kind }

func (c *IDFormatCheck) Run(tables model.Tables) []model.ValidationIssue {
	pk := schema.PrimaryKey(c.kind)
	pattern := idPatterns[c.kind]

	var issues []model.ValidationIssue
	for i, row := range tables.Get(c.kind) {
		id := trimmed(cellString(row, pk))
		if !pattern.MatchString(id) {
			msg := fmt.Sprintf(msgInvalidIDFormat, pk, id, schema.IDPrefix(c.kind))
			issues = append(issues, rowIssue(c.kind, i, pk, msg, model.SeverityError))
		}
	}
	return issues
}

// AvailableSlotsCheck requires every worker's slots to be a JSON array of positive whole numbers
type AvailableSlotsCheck struct{}

func (c *AvailableSlotsCheck) Name() string { return "AvailableSlots" }
func (c *AvailableSlotsCheck) Entity() model.EntityKind { return model.EntityWorkers }

func (c *AvailableSlotsCheck) Run(tables model.Tables) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for i, worker := range tables.Workers {
		_, err := fields.ParseSlotArray(cellString(worker, model.ColAvailableSlots))
		if err == nil {
			continue
		}

		msg := msgSlotsNonPositive
		switch {
		case errors.Is(err, fields.ErrSlotsNotJSON):
			msg = msgSlotsNotJSON
		case errors.Is(err, fields.ErrSlotsNotArray):
			msg = msgSlotsNotArray
		}
		issues = append(issues, rowIssue(model.EntityWorkers, i, model.ColAvailableSlots, msg, model.SeverityError))
	}
	return issues
}

// IntRangeCheck requires a column to hold a whole number within [min, max].
// A max of 0 leaves the range open above.
type IntRangeCheck struct {
	kind   model.EntityKind
	column string
	min    int
	max    int
}

// NewIntRangeCheck creates a range check on the given entity column
func NewIntRangeCheck(kind model.EntityKind, column string, min, max int) *IntRangeCheck {
	return &IntRangeCheck{kind: kind, column: column, min: min, max: max}
}

func (c *IntRangeCheck) Name() string { return "IntRange:" + c.column }
func (c *IntRangeCheck) Entity() model.EntityKind { return c.kind }

func (c *IntRangeCheck) Run(tables model.Tables) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for i, row := range tables.Get(c.kind) {
		value, ok := fields.CellInt(row[c.column])
		if ok && value >= c.min && (c.max == 0 || value <= c.max) {
			continue
		}

		raw := cellString(row, c.column)
		msg := fmt.Sprintf(msgIntBelowMinimum, c.column, c.min, raw)
		if c.max != 0 {
			msg = fmt.Sprintf(msgIntOutOfRange, c.column, c.min, c.max, raw)
		}
		issues = append(issues, rowIssue(c.kind, i, c.column, msg, model.SeverityError))
	}
	return issues
}

// AttributesJSONCheck requires a non-blank string AttributesJSON to parse.
// Absent, blank and already-decoded values are accepted.
type AttributesJSONCheck struct{}

func (c *AttributesJSONCheck) Name() string { return "AttributesJSON" }
func (c *AttributesJSONCheck) Entity() model.EntityKind { return model.EntityClients }

func (c *AttributesJSONCheck) Run(tables model.Tables) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for i, client := range tables.Clients {
		raw, isString := client[model.ColAttributesJSON].(string)
		if !isString || trimmed(raw) == "" {
			continue
		}
		if err := fields.ParseJSONBlob(raw); err != nil {
			issues = append(issues, rowIssue(model.EntityClients, i, model.ColAttributesJSON, msgInvalidAttributes, model.SeverityError))
		}
	}
	return issues
}

// ClientNameCheck requires a non-blank ClientName
type ClientNameCheck struct{}

func (c *ClientNameCheck) Name() string { return "ClientName" }
func (c *ClientNameCheck) Entity() model.EntityKind { return model.EntityClients }

func (c *ClientNameCheck) Run(tables model.Tables) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for i, client := range tables.Clients {
		if trimmed(cellString(client, model.ColClientName)) == "" {
			issues = append(issues, rowIssue(model.EntityClients, i, model.ColClientName, msgEmptyClientName, model.SeverityError))
		}
	}
	return issues
}

// PreferredPhasesCheck requires every task's PreferredPhases to yield a non-empty phase set
type PreferredPhasesCheck struct{}

func (c *PreferredPhasesCheck) Name() string { return "PreferredPhases" }
func (c *PreferredPhasesCheck) Entity() model.EntityKind { return model.EntityTasks }

func (c *PreferredPhasesCheck) Run(tables model.Tables) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for i, task := range tables.Tasks {
		raw := cellString(task, model.ColPreferredPhases)
		if _, ok := fields.ParsePhaseSet(raw); !ok {
			issues = append(issues, rowIssue(model.EntityTasks, i, model.ColPreferredPhases, fmt.Sprintf(msgInvalidPhases, raw), model.SeverityError))
		}
	}
	return issues
}

// GroupTagCheck warns about non-blank GroupTag values outside the fixed set
type GroupTagCheck struct{}

func (c *GroupTagCheck) Name() string { return "GroupTag" }
func (c *GroupTagCheck) Entity() model.EntityKind { return model.EntityClients }

func (c *GroupTagCheck) Run(tables model.Tables) []model.ValidationIssue {
	allowed := strings.Join(schema.ValidGroupTags, ", ")

	var issues []model.ValidationIssue
	for i, client := range tables.Clients {
		tag := trimmed(cellString(client, model.ColGroupTag))
		if tag == "" || schema.IsValidGroupTag(tag) {
			continue
		}
		issues = append(issues, rowIssue(model.EntityClients, i, model.ColGroupTag, fmt.Sprintf(msgUnknownGroupTag, tag, allowed), model.SeverityWarning))
	}
	return issues
}
