package collaborator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/rules"
)

// DefaultTimeout bounds a single call to the primary collaborator
const DefaultTimeout = 30 * time.Second

// Result carries a collaborator answer along with how it was produced.
// Err holds the primary's failure when FellBack is set, for display as a transient warning.
type Result[T any] struct {
	Value    T
	FellBack bool
	Err      error
}

// Assistant calls a primary collaborator with a deadline and answers from the
// local heuristic when the primary fails. Its methods never return an error.
type Assistant struct {
	primary  Collaborator
	fallback *Heuristic
	timeout  time.Duration
	logger   *zap.Logger
}

// NewAssistant creates an Assistant. A nil primary answers every call from the heuristic
// directly, and a non-positive timeout uses DefaultTimeout.
func NewAssistant(primary Collaborator, timeout time.Duration, logger *zap.Logger) *Assistant {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Assistant{
		primary:  primary,
		fallback: NewHeuristic(),
		timeout:  timeout,
		logger:   logger,
	}
}

// call runs op against the primary and, on failure, against the fallback
func call[T any](ctx context.Context, a *Assistant, op string, run func(context.Context, Collaborator) (T, error)) Result[T] {
	if a.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		start := time.Now()
		value, err := run(callCtx, a.primary)
		cancel()

		if err == nil {
			a.logger.Debug("Collaborator call succeeded",
				zap.String("op", op),
				zap.Duration("elapsed", time.Since(start)))
			return Result[T]{Value: value}
		}

		err = classify(callCtx, err)
		a.logger.Warn("Collaborator call failed, using local heuristic",
			zap.String("op", op),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))

		// The heuristic never fails
		value, _ = run(ctx, a.fallback)
		return Result[T]{Value: value, FellBack: true, Err: err}
	}

	value, _ := run(ctx, a.fallback)
	a.logger.Debug("Collaborator call answered locally", zap.String("op", op))
	return Result[T]{Value: value}
}

func (a *Assistant) MapHeaders(ctx context.Context, headers []string, kind model.EntityKind) Result[[]string] {
	return call(ctx, a, "mapHeaders", func(ctx context.Context, c Collaborator) ([]string, error) {
		return c.MapHeaders(ctx, headers, kind)
	})
}

func (a *Assistant) QueryData(ctx context.Context, query string, rows model.Table, kind model.EntityKind) Result[model.Table] {
	return call(ctx, a, "queryData", func(ctx context.Context, c Collaborator) (model.Table, error) {
		return c.QueryData(ctx, query, rows, kind)
	})
}

// ModifyData applies command to rows. When the primary fails the rows come
// back unchanged rather than edited by the heuristic modifier, which only
// answers when no primary is configured.
func (a *Assistant) ModifyData(ctx context.Context, command string, rows model.Table) Result[model.Table] {
	result := call(ctx, a, "modifyData", func(ctx context.Context, c Collaborator) (model.Table, error) {
		return c.ModifyData(ctx, command, rows)
	})
	if result.FellBack {
		result.Value = rows
	}
	return result
}

func (a *Assistant) ParseRule(ctx context.Context, text string, rc RuleContext) Result[rules.Rule] {
	return call(ctx, a, "parseRule", func(ctx context.Context, c Collaborator) (rules.Rule, error) {
		return c.ParseRule(ctx, text, rc)
	})
}

func (a *Assistant) RecommendRules(ctx context.Context, tables model.Tables) Result[[]RuleSuggestion] {
	return call(ctx, a, "recommendRules", func(ctx context.Context, c Collaborator) ([]RuleSuggestion, error) {
		return c.RecommendRules(ctx, tables)
	})
}

func (a *Assistant) SuggestCorrections(ctx context.Context, rows model.Table, kind model.EntityKind) Result[[]Correction] {
	return call(ctx, a, "suggestCorrections", func(ctx context.Context, c Collaborator) ([]Correction, error) {
		return c.SuggestCorrections(ctx, rows, kind)
	})
}

func (a *Assistant) ValidateWithExternalModel(ctx context.Context, rows model.Table, kind model.EntityKind) Result[[]ExternalIssue] {
	return call(ctx, a, "validateWithExternalModel", func(ctx context.Context, c Collaborator) ([]ExternalIssue, error) {
		return c.ValidateWithExternalModel(ctx, rows, kind)
	})
}
