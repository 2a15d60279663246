package services

import (
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/allocator"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/rules"
	"github.com/jakechorley/data-curator/pkg/core/validation"
)

// AllocationPreview is a ranked candidate list together with the inputs that produced it.
// Validation is reported alongside so callers can flag a preview built on invalid data.
type AllocationPreview struct {
	Candidates []allocator.Candidate `json:"candidates"`
	Weights    allocator.Weights     `json:"weights"`
	RuleCount  int                   `json:"ruleCount"`
	Validation validation.Summary    `json:"validation"`
}

// PreviewAllocation scores the tables with the store's current weights.
// Rules are stored for export and display; they do not change the score.
func PreviewAllocation(tables model.Tables, store rules.Store, logger *zap.Logger) *AllocationPreview {
	weights := store.CurrentWeights()
	logger.Debug("Scoring allocation candidates",
		zap.Float64("priority_weight", weights.PriorityLevel),
		zap.Float64("fairness_weight", weights.Fairness),
		zap.Float64("workload_weight", weights.Workload),
		zap.Float64("cost_weight", weights.Cost))

	candidates := allocator.Score(tables, weights)
	if candidates == nil {
		candidates = []allocator.Candidate{}
	}

	summary := validation.Summarize(validation.Validate(tables))
	if summary.Errors > 0 {
		logger.Warn("Scoring tables that have validation errors", zap.Int("errors", summary.Errors))
	}

	logger.Info("Allocation preview ready", zap.Int("candidates", len(candidates)))

	return &AllocationPreview{
		Candidates: candidates,
		Weights:    weights,
		RuleCount:  len(store.ListRules()),
		Validation: summary,
	}
}
