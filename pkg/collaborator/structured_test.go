package collaborator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headersReply struct {
	Headers []string `json:"headers"`
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{"plain object", `{"headers": ["A", "B"]}`, []string{"A", "B"}, false},
		{"code fence", "```json\n{\"headers\": [\"A\"]}\n```", []string{"A"}, false},
		{"surrounding prose", "Here you go:\n{\"headers\": [\"x}\"]}\nHope this helps", []string{"x}"}, false},
		{"nested braces", `{"headers": ["A"], "meta": {"k": {"v": 1}}}`, []string{"A"}, false},
		{"no object", "I could not do that", nil, true},
		{"unbalanced", `{"headers": ["A"]`, nil, true},
		{"wrong types", `{"headers": "A"}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON[headersReply](tt.raw, nil)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidOutput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Headers)
		})
	}
}

func TestExtractJSON_ShapeCheck(t *testing.T) {
	check := func(r headersReply) error {
		if len(r.Headers) != 2 {
			return errors.New("want two headers")
		}
		return nil
	}

	_, err := extractJSON(`{"headers": ["only one"]}`, check)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "want two headers")

	got, err := extractJSON(`{"headers": ["a", "b"]}`, check)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Headers)
}
