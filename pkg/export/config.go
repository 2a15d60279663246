package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jakechorley/data-curator/pkg/core/rules"
)

// ExportConfig writes rules and weights as {"rules": [...], "weights": {...}} with 2-space indentation
func ExportConfig(w io.Writer, store rules.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store.Config()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ImportConfig restores a store from a document written by ExportConfig.
// Weights absent from the document are zero.
func ImportConfig(r io.Reader) (rules.Store, error) {
	var cfg rules.Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return rules.Store{}, fmt.Errorf("failed to decode config: %w", err)
	}

	for i, rule := range cfg.Rules {
		if !rule.Type.IsValid() {
			return rules.Store{}, fmt.Errorf("rule %d has unknown type %q", i, rule.Type)
		}
	}
	if err := cfg.Weights.Validate(); err != nil {
		return rules.Store{}, err
	}
	return rules.FromConfig(cfg), nil
}
