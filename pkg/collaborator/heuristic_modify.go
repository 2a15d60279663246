package collaborator

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

// setCommand matches "set <column> to <value>" with an optional "where <column> is <value>"
var setCommand = regexp.MustCompile(`(?i)^\s*set\s+(\w+)\s+(?:to|=)\s+(.+?)(?:\s+where\s+(\w+)\s+(?:is|=|equals)\s+(.+?))?\s*$`)

// ModifyData understands "set X to Y [where A is B]". Any other command returns the rows unchanged.
// Modified rows are copies; the input rows are never written to.
func (h *Heuristic) ModifyData(_ context.Context, command string, rows model.Table) (model.Table, error) {
	out := make(model.Table, len(rows))
	copy(out, rows)

	m := setCommand.FindStringSubmatch(command)
	if m == nil {
		return out, nil
	}

	target := resolveColumn(rows, m[1])
	value := unquote(m[2])

	var filterColumn, filterValue string
	if m[3] != "" {
		filterColumn = resolveColumn(rows, m[3])
		filterValue = unquote(m[4])
	}

	for i, row := range rows {
		if filterColumn != "" && !strings.EqualFold(strings.TrimSpace(fields.CellString(row[filterColumn])), filterValue) {
			continue
		}

		updated := make(model.Row, len(row)+1)
		for k, v := range row {
			updated[k] = v
		}
		updated[target] = typedLike(row[target], value)
		out[i] = updated
	}
	return out, nil
}

// resolveColumn finds the existing column name matching name after normalization.
// Unknown names are used verbatim so a command can add a column.
func resolveColumn(rows model.Table, name string) string {
	want := schema.Normalize(name)
	for _, row := range rows {
		for key := range row {
			if schema.Normalize(key) == want {
				return key
			}
		}
	}
	return name
}

// typedLike keeps numeric cells numeric when the new value parses as a number
func typedLike(current any, value string) any {
	if _, isNumber := current.(float64); isNumber {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return value
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
