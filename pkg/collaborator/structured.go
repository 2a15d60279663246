package collaborator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON decodes the first JSON object in raw model output into T.
// Markdown code fences and any prose around the object are ignored.
// A non-nil check validates the decoded shape before it is returned.
func extractJSON[T any](raw string, check func(T) error) (T, error) {
	var zero T

	block := firstObject(stripCodeFences(raw))
	if block == "" {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}

	var result T
	if err := json.Unmarshal([]byte(block), &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if check != nil {
		if err := check(result); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}
	return result, nil
}

// stripCodeFences drops ``` fence lines, keeping their contents
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// firstObject returns the first balanced { ... } block, honouring string literals
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
