package services

import (
	"sync"

	"github.com/jakechorley/data-curator/pkg/core/allocator"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/rules"
)

// Session is the working state of one curation session: the current tables
// and the rule/weight store. It is safe for concurrent use. Readers get
// snapshots; tables handed out must not be mutated.
type Session struct {
	mu     sync.RWMutex
	tables model.Tables
	store  rules.Store
}

// NewSession starts with empty tables and no rules
func NewSession(weights allocator.Weights) *Session {
	return &Session{
		tables: model.Tables{Clients: model.Table{}, Workers: model.Table{}, Tasks: model.Table{}},
		store:  rules.NewStore(weights),
	}
}

func (s *Session) Tables() model.Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

// SetTables replaces all three tables
func (s *Session) SetTables(tables model.Tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
}

// SetTable replaces a single entity table
func (s *Session) SetTable(kind model.EntityKind, table model.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = s.tables.With(kind, table)
}

func (s *Session) Store() rules.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// UpdateStore applies fn to the current store and keeps the result unless fn fails
func (s *Session) UpdateStore(fn func(rules.Store) (rules.Store, error)) (rules.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.store)
	if err != nil {
		return s.store, err
	}
	s.store = next
	return next, nil
}
