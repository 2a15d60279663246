package collaborator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/rules"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

const DefaultGenAIModel = "gemini-2.5-flash"

const systemPrompt = "You help curate spreadsheet data about clients, workers and tasks. " +
	"Reply with a single JSON object and nothing else."

// generator sends one prompt to a model and returns its raw text reply
type generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GenAI implements Collaborator on top of the Gemini API
type GenAI struct {
	gen generator
}

var _ Collaborator = (*GenAI)(nil)

// NewGenAI creates a Gemini-backed collaborator
func NewGenAI(ctx context.Context, apiKey, modelName string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if modelName == "" {
		modelName = DefaultGenAIModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{gen: &geminiGenerator{client: client, model: modelName}}, nil
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.1),
		ResponseMIMEType:  "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrInvalidOutput)
	}
	return text, nil
}

// ask sends a JSON payload with an instruction and decodes the reply into T
func ask[T any](ctx context.Context, gen generator, instruction string, payload any, check func(T) error) (T, error) {
	var zero T

	body, err := json.Marshal(payload)
	if err != nil {
		return zero, fmt.Errorf("failed to encode prompt payload: %w", err)
	}

	raw, err := gen.Generate(ctx, systemPrompt, instruction+"\n\nInput:\n"+string(body))
	if err != nil {
		return zero, classify(ctx, err)
	}
	return extractJSON(raw, check)
}

func (g *GenAI) MapHeaders(ctx context.Context, headers []string, kind model.EntityKind) ([]string, error) {
	type reply struct {
		Headers []string `json:"headers"`
	}

	instruction := fmt.Sprintf(
		"Map each raw header onto one of the expected %s columns %s. "+
			`Return {"headers": [...]} with exactly one entry per input header, in input order. `+
			"Keep a header unchanged if nothing fits.",
		kind, strings.Join(schema.Columns(kind), ", "))

	out, err := ask(ctx, g.gen, instruction, map[string]any{"headers": headers}, func(r reply) error {
		if len(r.Headers) != len(headers) {
			return fmt.Errorf("expected %d headers, got %d", len(headers), len(r.Headers))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Headers, nil
}

// QueryData asks the model for matching row indexes and returns those rows in input order
func (g *GenAI) QueryData(ctx context.Context, query string, rows model.Table, kind model.EntityKind) (model.Table, error) {
	type reply struct {
		Indexes []int `json:"indexes"`
	}

	instruction := fmt.Sprintf(
		"Select the %s rows matching the query %q. "+
			`Return {"indexes": [...]} listing the zero-based indexes of matching rows.`,
		kind, query)

	out, err := ask(ctx, g.gen, instruction, map[string]any{"rows": rows}, func(r reply) error {
		for _, i := range r.Indexes {
			if i < 0 || i >= len(rows) {
				return fmt.Errorf("row index %d out of range", i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	selected := make(map[int]bool, len(out.Indexes))
	for _, i := range out.Indexes {
		selected[i] = true
	}
	matched := make(model.Table, 0, len(selected))
	for i, row := range rows {
		if selected[i] {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func (g *GenAI) ModifyData(ctx context.Context, command string, rows model.Table) (model.Table, error) {
	type reply struct {
		Rows []model.Row `json:"rows"`
	}

	instruction := fmt.Sprintf(
		"Apply the edit %q to the rows. "+
			`Return {"rows": [...]} with every row, in the same order, including unchanged ones.`,
		command)

	out, err := ask(ctx, g.gen, instruction, map[string]any{"rows": rows}, func(r reply) error {
		if len(r.Rows) != len(rows) {
			return fmt.Errorf("expected %d rows, got %d", len(rows), len(r.Rows))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return model.Table(out.Rows), nil
}

func (g *GenAI) ParseRule(ctx context.Context, text string, rc RuleContext) (rules.Rule, error) {
	instruction := fmt.Sprintf(
		"Turn the allocation rule %q into a JSON object with a \"type\" field, one of %s, "+
			"plus the fields of that type: coRun {tasks}, slotRestriction {group, minCommonSlots}, "+
			"loadLimit {group, maxSlotsPerPhase}, phaseWindow {taskId, allowedPhases}, "+
			"patternMatch {regex, template, params}, precedenceOverride {overrides, priority}, freeForm {description}. "+
			"Only refer to identifiers listed in the input.",
		text, typeList())

	rule, err := ask(ctx, g.gen, instruction, rc, func(r rules.Rule) error {
		if !r.Type.IsValid() {
			return fmt.Errorf("unknown rule type %q", r.Type)
		}
		return nil
	})
	if err != nil {
		return rules.Rule{}, err
	}

	// Identity and timestamps belong to the store
	rule.ID = ""
	rule.CreatedAt = time.Time{}
	if rule.Description == "" {
		rule.Description = strings.TrimSpace(text)
	}
	return rule, nil
}

func (g *GenAI) RecommendRules(ctx context.Context, tables model.Tables) ([]RuleSuggestion, error) {
	type reply struct {
		Suggestions []RuleSuggestion `json:"suggestions"`
	}

	instruction := fmt.Sprintf(
		"Suggest allocation rules that the data implies. "+
			`Return {"suggestions": [{"rule": {...}, "reason": "..."}]}; rule types are %s. `+
			"Return an empty list when nothing stands out.",
		typeList())

	out, err := ask(ctx, g.gen, instruction, tables, func(r reply) error {
		for i, s := range r.Suggestions {
			if !s.Rule.Type.IsValid() {
				return fmt.Errorf("suggestion %d has unknown rule type %q", i, s.Rule.Type)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Suggestions == nil {
		return []RuleSuggestion{}, nil
	}
	return out.Suggestions, nil
}

func (g *GenAI) SuggestCorrections(ctx context.Context, rows model.Table, kind model.EntityKind) ([]Correction, error) {
	type reply struct {
		Corrections []Correction `json:"corrections"`
	}

	instruction := fmt.Sprintf(
		"Suggest corrections for suspicious %s cells. Expected columns: %s. "+
			`Return {"corrections": [{"rowIndex", "column", "currentValue", "suggestedValue", "reason", "confidence"}]} `+
			"with confidence between 0 and 1.",
		kind, strings.Join(schema.Columns(kind), ", "))

	out, err := ask(ctx, g.gen, instruction, map[string]any{"rows": rows}, func(r reply) error {
		for _, c := range r.Corrections {
			if c.RowIndex < 0 || c.RowIndex >= len(rows) {
				return fmt.Errorf("correction row index %d out of range", c.RowIndex)
			}
			if c.Confidence < 0 || c.Confidence > 1 {
				return fmt.Errorf("confidence %g outside [0, 1]", c.Confidence)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Corrections == nil {
		return []Correction{}, nil
	}
	return out.Corrections, nil
}

func (g *GenAI) ValidateWithExternalModel(ctx context.Context, rows model.Table, kind model.EntityKind) ([]ExternalIssue, error) {
	type reply struct {
		Issues []ExternalIssue `json:"issues"`
	}

	instruction := fmt.Sprintf(
		"Review these %s rows for problems a schema check would miss, such as implausible values or inconsistent naming. "+
			`Return {"issues": [{"field", "message", "severity"}]} with severity "error" or "warning".`,
		kind)

	out, err := ask(ctx, g.gen, instruction, map[string]any{"rows": rows}, func(r reply) error {
		for _, issue := range r.Issues {
			if issue.Severity != model.SeverityError && issue.Severity != model.SeverityWarning {
				return errors.New("issue severity must be error or warning")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Issues == nil {
		return []ExternalIssue{}, nil
	}
	return out.Issues, nil
}

func typeList() string {
	names := make([]string, len(rules.Types))
	for i, t := range rules.Types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
