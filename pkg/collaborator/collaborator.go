package collaborator

import (
	"context"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/rules"
)

// Collaborator is the contract for the assisted features. Implementations may be
// backed by a language model or by local heuristics and are interchangeable.
type Collaborator interface {
	// MapHeaders relabels raw headers onto the schema of kind. The result has the same length as headers.
	MapHeaders(ctx context.Context, headers []string, kind model.EntityKind) ([]string, error)

	// QueryData returns the subset of rows matching a natural language query, in input order
	QueryData(ctx context.Context, query string, rows model.Table, kind model.EntityKind) (model.Table, error)

	// ModifyData applies a natural language edit and returns the same number of rows.
	// The input rows are not modified.
	ModifyData(ctx context.Context, command string, rows model.Table) (model.Table, error)

	// ParseRule turns a natural language description into a typed rule
	ParseRule(ctx context.Context, text string, rc RuleContext) (rules.Rule, error)

	// RecommendRules proposes rules from patterns in the data
	RecommendRules(ctx context.Context, tables model.Tables) ([]RuleSuggestion, error)

	// SuggestCorrections proposes replacement values for suspicious cells
	SuggestCorrections(ctx context.Context, rows model.Table, kind model.EntityKind) ([]Correction, error)

	// ValidateWithExternalModel reports issues the deterministic validation engine does not look for
	ValidateWithExternalModel(ctx context.Context, rows model.Table, kind model.EntityKind) ([]ExternalIssue, error)
}

// RuleContext lists the identifiers a parsed rule may refer to
type RuleContext struct {
	ClientIDs    []string `json:"clientIds,omitempty"`
	WorkerIDs    []string `json:"workerIds,omitempty"`
	TaskIDs      []string `json:"taskIds,omitempty"`
	ClientGroups []string `json:"clientGroups,omitempty"`
	WorkerGroups []string `json:"workerGroups,omitempty"`
}

// NewRuleContext collects identifiers and groups from the three tables
func NewRuleContext(tables model.Tables) RuleContext {
	return RuleContext{
		ClientIDs:    distinctValues(tables.Clients, model.ColClientID),
		WorkerIDs:    distinctValues(tables.Workers, model.ColWorkerID),
		TaskIDs:      distinctValues(tables.Tasks, model.ColTaskID),
		ClientGroups: distinctValues(tables.Clients, model.ColGroupTag),
		WorkerGroups: distinctValues(tables.Workers, model.ColWorkerGroup),
	}
}

// RuleSuggestion is a recommended rule with the reason it was proposed
type RuleSuggestion struct {
	Rule   rules.Rule `json:"rule"`
	Reason string     `json:"reason"`
}

// Correction proposes a new value for a single cell
type Correction struct {
	RowIndex       int     `json:"rowIndex"`
	Column         string  `json:"column"`
	CurrentValue   string  `json:"currentValue"`
	SuggestedValue string  `json:"suggestedValue"`
	Reason         string  `json:"reason"`
	Confidence     float64 `json:"confidence"`
}

// ExternalIssue is a finding from a collaborator-side validation pass
type ExternalIssue struct {
	Field    string         `json:"field"`
	Message  string         `json:"message"`
	Severity model.Severity `json:"severity"`
}
