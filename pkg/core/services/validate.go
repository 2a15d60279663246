package services

import (
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/validation"
)

// ValidationResult is the full issue list plus counts for display
type ValidationResult struct {
	Issues    []model.ValidationIssue                 `json:"issues"`
	Summary   validation.Summary                      `json:"summary"`
	PerEntity map[model.EntityKind]validation.Summary `json:"perEntity"`
}

// Clean reports whether no errors were found. Warnings do not count.
func (r *ValidationResult) Clean() bool {
	return r.Summary.Errors == 0
}

// ValidateTables runs the full check battery over the three tables
func ValidateTables(tables model.Tables, logger *zap.Logger) *ValidationResult {
	logger.Debug("Validating tables",
		zap.Int("clients", len(tables.Clients)),
		zap.Int("workers", len(tables.Workers)),
		zap.Int("tasks", len(tables.Tasks)))

	issues := validation.Validate(tables)

	result := &ValidationResult{
		Issues:    issues,
		Summary:   validation.Summarize(issues),
		PerEntity: make(map[model.EntityKind]validation.Summary, len(model.EntityKinds)),
	}
	for _, kind := range model.EntityKinds {
		result.PerEntity[kind] = validation.Summarize(validation.Filter(issues, kind))
	}

	logger.Info("Validation complete",
		zap.Int("errors", result.Summary.Errors),
		zap.Int("warnings", result.Summary.Warnings))

	return result
}
