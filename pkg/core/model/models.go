package model

import "fmt"

// EntityKind names one of the three curated tables
type EntityKind string

const (
	EntityClients EntityKind = "clients"
	EntityWorkers EntityKind = "workers"
	EntityTasks   EntityKind = "tasks"
)

// EntityKinds lists every entity in validation order
var EntityKinds = []EntityKind{EntityClients, EntityWorkers, EntityTasks}

func (k EntityKind) IsValid() bool {
	return k == EntityClients || k == EntityWorkers || k == EntityTasks
}

// ParseEntityKind converts a raw string (e.g. from a URL or flag) into an EntityKind
func ParseEntityKind(raw string) (EntityKind, error) {
	kind := EntityKind(raw)
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown entity %q (expected clients, workers or tasks)", raw)
	}
	return kind, nil
}

// Column names shared by the validation engine, the scorer and the schema registry
const (
	ColClientID         = "ClientID"
	ColClientName       = "ClientName"
	ColPriorityLevel    = "PriorityLevel"
	ColRequestedTaskIDs = "RequestedTaskIDs"
	ColGroupTag         = "GroupTag"
	ColAttributesJSON   = "AttributesJSON"

	ColWorkerID           = "WorkerID"
	ColWorkerName         = "WorkerName"
	ColSkills             = "Skills"
	ColAvailableSlots     = "AvailableSlots"
	ColMaxLoadPerPhase    = "MaxLoadPerPhase"
	ColWorkerGroup        = "WorkerGroup"
	ColQualificationLevel = "QualificationLevel"

	ColTaskID          = "TaskID"
	ColTaskName        = "TaskName"
	ColCategory        = "Category"
	ColDuration        = "Duration"
	ColRequiredSkills  = "RequiredSkills"
	ColPreferredPhases = "PreferredPhases"
	ColMaxConcurrent   = "MaxConcurrent"
)

// Row is one untyped record keyed by column name.
// Values are whatever the ingestion layer produced: string, float64, bool or decoded JSON.
type Row map[string]any

// Table is an ordered list of rows sharing a column contract
type Table []Row

// Tables bundles the three entity tables. Consumers must not mutate them.
type Tables struct {
	Clients Table `json:"clients"`
	Workers Table `json:"workers"`
	Tasks   Table `json:"tasks"`
}

// Get returns the table for the given entity kind
func (t Tables) Get(kind EntityKind) Table {
	switch kind {
	case EntityClients:
		return t.Clients
	case EntityWorkers:
		return t.Workers
	case EntityTasks:
		return t.Tasks
	}
	return nil
}

// With returns a copy of t with the table for kind replaced
func (t Tables) With(kind EntityKind, table Table) Tables {
	switch kind {
	case EntityClients:
		t.Clients = table
	case EntityWorkers:
		t.Workers = table
	case EntityTasks:
		t.Tasks = table
	}
	return t
}

// Severity classifies a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is a single finding of the validation engine.
// A nil RowIndex means the issue applies to the whole table.
type ValidationIssue struct {
	Entity   EntityKind `json:"entity"`
	RowIndex *int       `json:"rowIndex"`
	Column   string     `json:"column,omitempty"`
	Message  string     `json:"message"`
	Severity Severity   `json:"severity"`
}

// IsTableLevel reports whether the issue is not tied to a specific row
func (i ValidationIssue) IsTableLevel() bool {
	return i.RowIndex == nil
}

// RowIndexPtr is a helper for building row-level issues
func RowIndexPtr(i int) *int {
	return &i
}
