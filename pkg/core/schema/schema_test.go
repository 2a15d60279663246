package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/data-curator/pkg/core/model"
)

func TestColumns_ReturnsCopy(t *testing.T) {
	cols := Columns(model.EntityClients)
	assert.Equal(t, []string{"ClientID", "ClientName", "PriorityLevel", "RequestedTaskIDs", "GroupTag", "AttributesJSON"}, cols)

	cols[0] = "mutated"
	assert.Equal(t, "ClientID", Columns(model.EntityClients)[0], "Callers must not be able to mutate the registry")
}

func TestColumns_UnknownKind(t *testing.T) {
	assert.Nil(t, Columns(model.EntityKind("projects")))
}

func TestPrimaryKeyAndPrefix(t *testing.T) {
	tests := []struct {
		kind   model.EntityKind
		key    string
		prefix string
	}{
		{model.EntityClients, "ClientID", "C"},
		{model.EntityWorkers, "WorkerID", "W"},
		{model.EntityTasks, "TaskID", "T"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.key, PrimaryKey(tt.kind))
			assert.Equal(t, tt.prefix, IDPrefix(tt.kind))
		})
	}
}

func TestMissingColumns(t *testing.T) {
	present := map[string]bool{"TaskID": true, "TaskName": true, "Duration": true}

	missing := MissingColumns(model.EntityTasks, present)
	assert.Equal(t, []string{"Category", "RequiredSkills", "PreferredPhases", "MaxConcurrent"}, missing)
}

func TestIsValidGroupTag(t *testing.T) {
	assert.True(t, IsValidGroupTag("GroupB"))
	assert.False(t, IsValidGroupTag("groupb"))
	assert.False(t, IsValidGroupTag("GroupD"))
}

func TestLookup(t *testing.T) {
	tests := []struct {
		header string
		want   string
		found  bool
	}{
		{"ClientID", "ClientID", true},
		{"client id", "ClientID", true},
		{"Requested_Task_IDs", "RequestedTaskIDs", true},
		{"Skills", "", false}, // worker column, not a client column
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := Lookup(model.EntityClients, tt.header)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
