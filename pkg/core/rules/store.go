package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/data-curator/pkg/core/allocator"
)

var ErrIndexOutOfRange = errors.New("rule index out of range")

// Store holds the ordered rule list and the current weights.
// It is a value: every operation returns a new Store and leaves the receiver untouched.
type Store struct {
	rules   []Rule
	weights allocator.Weights
	now     func() time.Time
}

// Config is the exported form of a Store
type Config struct {
	Rules   []Rule            `json:"rules"`
	Weights allocator.Weights `json:"weights"`
}

// NewStore creates an empty rule list with the given starting weights
func NewStore(weights allocator.Weights) Store {
	return Store{
		rules:   []Rule{},
		weights: weights,
		now:     time.Now,
	}
}

// FromConfig restores a Store from an exported config. Rules keep their IDs and timestamps.
func FromConfig(cfg Config) Store {
	s := NewStore(cfg.Weights)
	s.rules = append(s.rules, cfg.Rules...)
	return s
}

// WithClock returns a copy of the store that stamps new rules using now
func (s Store) WithClock(now func() time.Time) Store {
	s.now = now
	return s
}

// AddRule appends a rule. A missing ID or creation time is filled in; the
// parameters themselves are stored as given.
func (s Store) AddRule(rule Rule) Store {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		now := s.now
		if now == nil {
			now = time.Now
		}
		rule.CreatedAt = now().UTC()
	}

	rules := make([]Rule, len(s.rules), len(s.rules)+1)
	copy(rules, s.rules)
	s.rules = append(rules, rule)
	return s
}

// RemoveRule drops the rule at index, shifting later rules down
func (s Store) RemoveRule(index int) (Store, error) {
	if index < 0 || index >= len(s.rules) {
		return s, fmt.Errorf("%w: %d (have %d rules)", ErrIndexOutOfRange, index, len(s.rules))
	}

	rules := make([]Rule, 0, len(s.rules)-1)
	rules = append(rules, s.rules[:index]...)
	rules = append(rules, s.rules[index+1:]...)
	s.rules = rules
	return s, nil
}

// SetWeight replaces a single weight
func (s Store) SetWeight(key string, value float64) (Store, error) {
	weights, err := s.weights.With(key, value)
	if err != nil {
		return s, err
	}
	s.weights = weights
	return s, nil
}

// ListRules returns a copy of the rules in insertion order
func (s Store) ListRules() []Rule {
	rules := make([]Rule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

func (s Store) CurrentWeights() allocator.Weights {
	return s.weights
}

// Config snapshots the store for export
func (s Store) Config() Config {
	return Config{Rules: s.ListRules(), Weights: s.weights}
}
