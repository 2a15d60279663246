package schema

import (
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/model"
)

// Expected column names per entity, in display order
var (
	clientColumns = []string{
		model.ColClientID,
		model.ColClientName,
		model.ColPriorityLevel,
		model.ColRequestedTaskIDs,
		model.ColGroupTag,
		model.ColAttributesJSON,
	}

	workerColumns = []string{
		model.ColWorkerID,
		model.ColWorkerName,
		model.ColSkills,
		model.ColAvailableSlots,
		model.ColMaxLoadPerPhase,
		model.ColWorkerGroup,
		model.ColQualificationLevel,
	}

	taskColumns = []string{
		model.ColTaskID,
		model.ColTaskName,
		model.ColCategory,
		model.ColDuration,
		model.ColRequiredSkills,
		model.ColPreferredPhases,
		model.ColMaxConcurrent,
	}
)

// Columns returns a copy of the expected columns for the given entity.
// Unknown kinds return nil.
func Columns(kind model.EntityKind) []string {
	var cols []string
	switch kind {
	case model.EntityClients:
		cols = clientColumns
	case model.EntityWorkers:
		cols = workerColumns
	case model.EntityTasks:
		cols = taskColumns
	default:
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// PrimaryKey returns the ID column of the given entity
func PrimaryKey(kind model.EntityKind) string {
	switch kind {
	case model.EntityClients:
		return model.ColClientID
	case model.EntityWorkers:
		return model.ColWorkerID
	case model.EntityTasks:
		return model.ColTaskID
	}
	return ""
}

// IDPrefix returns the letter every primary key of the entity starts with
func IDPrefix(kind model.EntityKind) string {
	switch kind {
	case model.EntityClients:
		return "C"
	case model.EntityWorkers:
		return "W"
	case model.EntityTasks:
		return "T"
	}
	return ""
}

// ValidGroupTags is the fixed set of accepted client GroupTag values
var ValidGroupTags = []string{"GroupA", "GroupB", "GroupC"}

// IsValidGroupTag reports whether tag is one of ValidGroupTags (exact match)
func IsValidGroupTag(tag string) bool {
	for _, valid := range ValidGroupTags {
		if tag == valid {
			return true
		}
	}
	return false
}

// MissingColumns returns the expected columns of kind absent from the given key set, in schema order
func MissingColumns(kind model.EntityKind, present map[string]bool) []string {
	var missing []string
	for _, col := range Columns(kind) {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// Normalize reduces a header to lowercase alphanumerics so that
// "Client ID", "client_id" and "ClientID" compare equal
func Normalize(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(header) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup finds the schema column matching header after normalization
func Lookup(kind model.EntityKind, header string) (string, bool) {
	target := Normalize(header)
	if target == "" {
		return "", false
	}
	for _, col := range Columns(kind) {
		if Normalize(col) == target {
			return col, true
		}
	}
	return "", false
}
